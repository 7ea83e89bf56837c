package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storepulse-backend/pkg/db/models"
	"github.com/angelmondragon/storepulse-backend/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// Classifier labels an order against the customer history.
type Classifier interface {
	Classify(order models.Order) enums.CustomerKind
}

// DayMetrics holds every metric of one UTC day. The first block is summed
// directly from orders, the second is derived from it.
type DayMetrics struct {
	Date time.Time

	TotalSales          decimal.Decimal
	Taxes               decimal.Decimal
	Cogs                decimal.Decimal
	Orders              int64
	NewCustomerOrders   int64
	NewCustomers        int64
	RepeatCustomers     int64
	TotalCustomers      int64
	NewCustomerSales    decimal.Decimal
	RepeatCustomerSales decimal.Decimal
	Items               int64
	PurchaseRevenue     decimal.Decimal

	NetSales           decimal.Decimal
	GrossProfit        decimal.Decimal
	GrossProfitPercent decimal.Decimal
	CogsPercent        decimal.Decimal
	AOV                decimal.Decimal
	AverageItems       decimal.Decimal
	NewCustomerAOV     decimal.Decimal
	RepeatCustomerAOV  decimal.Decimal
}

// Value returns the metric by catalog name. Unknown names read as zero.
func (d DayMetrics) Value(metric enums.MetricType) decimal.Decimal {
	switch metric {
	case enums.MetricTotalSales:
		return d.TotalSales
	case enums.MetricTaxes:
		return d.Taxes
	case enums.MetricNetSales:
		return d.NetSales
	case enums.MetricCOGS:
		return d.Cogs
	case enums.MetricCOGSPercent:
		return d.CogsPercent
	case enums.MetricGrossProfit:
		return d.GrossProfit
	case enums.MetricGrossProfitPercent:
		return d.GrossProfitPercent
	case enums.MetricOrders:
		return decimal.NewFromInt(d.Orders)
	case enums.MetricNewCustomerOrders:
		return decimal.NewFromInt(d.NewCustomerOrders)
	case enums.MetricNewCustomers:
		return decimal.NewFromInt(d.NewCustomers)
	case enums.MetricRepeatCustomers:
		return decimal.NewFromInt(d.RepeatCustomers)
	case enums.MetricNewCustomerSales:
		return d.NewCustomerSales
	case enums.MetricRepeatCustomerSales:
		return d.RepeatCustomerSales
	case enums.MetricNewCustomerAOV:
		return d.NewCustomerAOV
	case enums.MetricRepeatCustomerAOV:
		return d.RepeatCustomerAOV
	case enums.MetricAOV:
		return d.AOV
	case enums.MetricAverageItems:
		return d.AverageItems
	case enums.MetricTotalCustomers:
		return decimal.NewFromInt(d.TotalCustomers)
	case enums.MetricPurchaseRevenue:
		return d.PurchaseRevenue
	default:
		return decimal.Zero
	}
}

type dayAccumulator struct {
	metrics DayMetrics
	newSet  map[string]struct{}
	repeat  map[string]struct{}
	all     map[string]struct{}
}

// Compute aggregates orders into one DayMetrics per requested day, in the
// order the days were given. Orders outside those days are ignored.
func Compute(orders []models.Order, classifier Classifier, days []time.Time) []DayMetrics {
	acc := make(map[time.Time]*dayAccumulator, len(days))
	for _, d := range days {
		key := StartOfDay(d)
		acc[key] = &dayAccumulator{
			metrics: zeroDay(key),
			newSet:  map[string]struct{}{},
			repeat:  map[string]struct{}{},
			all:     map[string]struct{}{},
		}
	}

	for _, order := range orders {
		bucket, ok := acc[StartOfDay(order.OrderedAt)]
		if !ok {
			continue
		}
		m := &bucket.metrics
		net := order.Paid.Sub(order.Tax)

		m.TotalSales = m.TotalSales.Add(order.Paid)
		m.Taxes = m.Taxes.Add(order.Tax)
		m.Cogs = m.Cogs.Add(order.Cogs)
		m.Orders++
		for _, item := range order.LineItems {
			m.Items += int64(item.Quantity)
			m.PurchaseRevenue = m.PurchaseRevenue.Add(item.Paid)
		}

		switch classifier.Classify(order) {
		case enums.CustomerKindNew:
			m.NewCustomerOrders++
			m.NewCustomerSales = m.NewCustomerSales.Add(net)
			bucket.newSet[order.CustomerID] = struct{}{}
			bucket.all[order.CustomerID] = struct{}{}
		case enums.CustomerKindRepeat:
			m.RepeatCustomerSales = m.RepeatCustomerSales.Add(net)
			bucket.repeat[order.CustomerID] = struct{}{}
			bucket.all[order.CustomerID] = struct{}{}
		}
	}

	out := make([]DayMetrics, 0, len(days))
	for _, d := range days {
		bucket := acc[StartOfDay(d)]
		for id := range bucket.newSet {
			delete(bucket.repeat, id)
		}
		m := bucket.metrics
		m.NewCustomers = int64(len(bucket.newSet))
		m.RepeatCustomers = int64(len(bucket.repeat))
		m.TotalCustomers = int64(len(bucket.all))
		out = append(out, derive(m))
	}
	return out
}

func derive(m DayMetrics) DayMetrics {
	orders := decimal.NewFromInt(m.Orders)
	m.NetSales = m.TotalSales.Sub(m.Taxes)
	m.GrossProfit = m.NetSales.Sub(m.Cogs)
	m.GrossProfitPercent = safeDiv(m.GrossProfit, m.NetSales).Mul(hundred)
	m.CogsPercent = safeDiv(m.Cogs, m.NetSales).Mul(hundred)
	m.AOV = safeDiv(m.TotalSales, orders)
	m.AverageItems = safeDiv(decimal.NewFromInt(m.Items), orders)
	m.NewCustomerAOV = safeDiv(m.NewCustomerSales, decimal.NewFromInt(m.NewCustomerOrders))
	m.RepeatCustomerAOV = safeDiv(m.RepeatCustomerSales, decimal.NewFromInt(m.Orders-m.NewCustomerOrders))
	return m
}

func zeroDay(day time.Time) DayMetrics {
	return DayMetrics{
		Date:                day,
		TotalSales:          decimal.Zero,
		Taxes:               decimal.Zero,
		Cogs:                decimal.Zero,
		NewCustomerSales:    decimal.Zero,
		RepeatCustomerSales: decimal.Zero,
		PurchaseRevenue:     decimal.Zero,
	}
}

// safeDiv returns zero when the denominator is zero.
func safeDiv(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den)
}

// StartOfDay truncates t to UTC midnight.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Days lists every UTC day from from through to, inclusive.
func Days(from, to time.Time) []time.Time {
	start, end := StartOfDay(from), StartOfDay(to)
	if end.Before(start) {
		return nil
	}
	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}
