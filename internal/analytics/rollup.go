package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storepulse-backend/pkg/enums"
)

// Series holds per-day values keyed by metric, all slices aligned to the same days.
type Series map[enums.MetricType][]decimal.Decimal

// NewSeries returns a zero-filled series for n days across the whole catalog.
func NewSeries(n int) Series {
	s := make(Series, len(enums.MetricCatalog()))
	for _, def := range enums.MetricCatalog() {
		values := make([]decimal.Decimal, n)
		for i := range values {
			values[i] = decimal.Zero
		}
		s[def.Type] = values
	}
	return s
}

// SeriesFromDays lays computed days out as a series.
func SeriesFromDays(days []DayMetrics) Series {
	s := NewSeries(len(days))
	for i, day := range days {
		for metric := range s {
			s[metric][i] = day.Value(metric)
		}
	}
	return s
}

// Total rolls a metric up across the range. Sums by default; percentages are
// averaged over days with a non-zero value and averages are weighted by the
// order count they were computed over.
func Total(metric enums.MetricType, s Series) decimal.Decimal {
	values := s[metric]
	switch metric {
	case enums.MetricGrossProfitPercent, enums.MetricCOGSPercent:
		return averageNonZero(values)
	case enums.MetricAOV, enums.MetricAverageItems:
		return weighted(values, s[enums.MetricOrders])
	case enums.MetricNewCustomerAOV:
		return weighted(values, s[enums.MetricNewCustomerOrders])
	case enums.MetricRepeatCustomerAOV:
		orders, newOrders := s[enums.MetricOrders], s[enums.MetricNewCustomerOrders]
		weights := make([]decimal.Decimal, len(values))
		for i := range weights {
			weights[i] = at(orders, i).Sub(at(newOrders, i))
		}
		return weighted(values, weights)
	default:
		return sum(values)
	}
}

func sum(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

func averageNonZero(values []decimal.Decimal) decimal.Decimal {
	total, count := decimal.Zero, int64(0)
	for _, v := range values {
		if v.IsZero() {
			continue
		}
		total = total.Add(v)
		count++
	}
	return safeDiv(total, decimal.NewFromInt(count))
}

func weighted(values, weights []decimal.Decimal) decimal.Decimal {
	num, den := decimal.Zero, decimal.Zero
	for i, v := range values {
		w := at(weights, i)
		num = num.Add(v.Mul(w))
		den = den.Add(w)
	}
	return safeDiv(num, den)
}

func at(values []decimal.Decimal, i int) decimal.Decimal {
	if i < len(values) {
		return values[i]
	}
	return decimal.Zero
}
