package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storepulse-backend/internal/customers"
	"github.com/angelmondragon/storepulse-backend/pkg/db/models"
	"github.com/angelmondragon/storepulse-backend/pkg/enums"
)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func mkOrder(id, customer string, at time.Time, paid, tax string, qty ...int) models.Order {
	p, tx := dec(paid), dec(tax)
	order := models.Order{
		ExternalID: id,
		CustomerID: customer,
		OrderedAt:  at,
		Paid:       p,
		Tax:        tx,
		Cogs:       p.Sub(tx).Mul(dec("0.34")).Round(2),
	}
	for i, q := range qty {
		order.LineItems = append(order.LineItems, models.LineItem{
			ExternalID: id + "-" + string(rune('a'+i)),
			Quantity:   q,
			Paid:       dec("10").Mul(decimal.NewFromInt(int64(q))),
		})
	}
	return order
}

func utcDay(d int) time.Time {
	return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeSameDayNewCustomer(t *testing.T) {
	orders := []models.Order{
		mkOrder("1", "c1", utcDay(1).Add(9*time.Hour), "100", "10", 2),
		mkOrder("2", "c1", utcDay(1).Add(15*time.Hour), "50", "5", 1),
	}
	idx := customers.NewIndex()
	idx.Rebuild(orders)

	days := Compute(orders, idx, []time.Time{utcDay(1)})
	require.Len(t, days, 1)
	d := days[0]

	assert.Equal(t, "150", d.TotalSales.String())
	assert.Equal(t, "15", d.Taxes.String())
	assert.Equal(t, "135", d.NetSales.String())
	assert.EqualValues(t, 2, d.Orders)
	assert.EqualValues(t, 1, d.NewCustomerOrders)
	assert.EqualValues(t, 1, d.NewCustomers)
	assert.EqualValues(t, 0, d.RepeatCustomers, "a customer is never both new and repeat on one day")
	assert.EqualValues(t, 1, d.TotalCustomers)
	assert.Equal(t, "90", d.NewCustomerSales.String())
	assert.Equal(t, "45", d.RepeatCustomerSales.String())
	assert.Equal(t, "90", d.NewCustomerAOV.String())
	assert.Equal(t, "45", d.RepeatCustomerAOV.String())
	assert.Equal(t, "75", d.AOV.String())
	assert.Equal(t, "1.5", d.AverageItems.String())
	assert.Equal(t, "30", d.PurchaseRevenue.String())
	assert.True(t, d.GrossProfit.Equal(d.NetSales.Sub(d.Cogs)))
	assert.Equal(t, "45.90", d.Cogs.StringFixed(2))
	assert.Equal(t, "34.00", d.CogsPercent.StringFixed(2))
	assert.Equal(t, "66.00", d.GrossProfitPercent.StringFixed(2))
}

func TestComputeZeroOrdersIsDivisionSafe(t *testing.T) {
	days := Compute(nil, customers.NewIndex(), Days(utcDay(1), utcDay(3)))
	require.Len(t, days, 3)
	for _, d := range days {
		for _, def := range enums.MetricCatalog() {
			assert.True(t, d.Value(def.Type).IsZero(), "%s should be zero", def.Type)
		}
	}
}

func TestComputeGuestsAndBuckets(t *testing.T) {
	history := []models.Order{mkOrder("1", "c1", utcDay(1).Add(time.Hour), "10", "0")}
	window := []models.Order{
		mkOrder("2", "c1", utcDay(2).Add(time.Hour), "20", "0"),
		mkOrder("3", "", utcDay(2).Add(2*time.Hour), "30", "0"),
		mkOrder("4", "c2", utcDay(2).Add(23*time.Hour+59*time.Minute), "40", "0"),
		mkOrder("5", "c3", utcDay(5), "99", "0"),
	}
	idx := customers.NewIndex()
	idx.Rebuild(append(history, window...))

	days := Compute(window, idx, []time.Time{utcDay(2)})
	require.Len(t, days, 1)
	d := days[0]
	assert.EqualValues(t, 3, d.Orders)
	assert.Equal(t, "90", d.TotalSales.String())
	assert.EqualValues(t, 1, d.NewCustomerOrders)
	assert.EqualValues(t, 1, d.NewCustomers)
	assert.EqualValues(t, 1, d.RepeatCustomers)
	assert.EqualValues(t, 2, d.TotalCustomers, "guests are not customers")
	assert.Equal(t, "40", d.NewCustomerSales.String())
	assert.Equal(t, "20", d.RepeatCustomerSales.String())
	assert.Equal(t, "10", d.RepeatCustomerAOV.String())
}

func TestDays(t *testing.T) {
	days := Days(utcDay(1).Add(20*time.Hour), utcDay(3).Add(time.Hour))
	assert.Equal(t, []time.Time{utcDay(1), utcDay(2), utcDay(3)}, days)
	assert.Nil(t, Days(utcDay(3), utcDay(1)))
}

func TestValueUnknownMetricIsZero(t *testing.T) {
	assert.True(t, DayMetrics{}.Value(enums.MetricType("Refunds")).IsZero())
}
