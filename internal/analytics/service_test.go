package analytics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storepulse-backend/internal/catalog"
	"github.com/angelmondragon/storepulse-backend/internal/customers"
	"github.com/angelmondragon/storepulse-backend/internal/orders"
	"github.com/angelmondragon/storepulse-backend/internal/stores"
	"github.com/angelmondragon/storepulse-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storepulse-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storepulse-backend/pkg/errors"
	"github.com/angelmondragon/storepulse-backend/pkg/redis"
)

type memoryCache struct {
	data  map[string]string
	gets  int
	fails bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string]string{}}
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	m.gets++
	if m.fails {
		return "", errors.New("connection refused")
	}
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if m.fails {
		return errors.New("connection refused")
	}
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryCache) Incr(_ context.Context, key string) (int64, error) {
	var n int64
	fmt.Sscan(m.data[key], &n)
	n++
	m.data[key] = fmt.Sprint(n)
	return n, nil
}

func (m *memoryCache) MetricsVersionKey(storeID string) string {
	return "metrics:" + storeID + ":version"
}

func (m *memoryCache) MetricsCacheKey(storeID string, version int64, view string) string {
	return fmt.Sprintf("metrics:%s:v%d:%s", storeID, version, view)
}

type fixture struct {
	conn    *gorm.DB
	store   models.Store
	service Service
	cache   *memoryCache
	metrics *Repository
}

func newFixture(t *testing.T, withCache bool) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	store := dbtest.SeedStore(t, conn, func(s *models.Store) { s.Currency = "USD $" })
	metrics := NewRepository(conn)

	var cache *Cache
	mem := newMemoryCache()
	if withCache {
		cache = NewCache(mem, time.Minute, nil)
	}
	svc, err := NewService(ServiceParams{
		Stores:   stores.NewRepository(conn),
		Metrics:  metrics,
		Orders:   orders.NewRepository(conn),
		Products: catalog.NewRepository(conn),
		Cache:    cache,
	})
	require.NoError(t, err)
	return fixture{conn: conn, store: store, service: svc, cache: mem, metrics: metrics}
}

func seedOrders(t *testing.T, f fixture, rows ...models.Order) {
	t.Helper()
	for i := range rows {
		rows[i].StoreID = f.store.ID
		rows[i].CustomerName = "Customer " + rows[i].CustomerID
		rows[i].FulfillmentStatus = "Unfulfilled"
		rows[i].ShippingCountry = "N/A"
		rows[i].ShippingRegion = "N/A"
		for j := range rows[i].LineItems {
			rows[i].LineItems[j].StoreID = f.store.ID
		}
	}
	_, err := orders.NewRepository(f.conn).InsertPage(context.Background(), rows)
	require.NoError(t, err)
}

func TestGetMetricsZeroFillsEmptyRange(t *testing.T) {
	f := newFixture(t, false)

	view, err := f.service.GetMetrics(context.Background(), f.store.ID, utcDay(1), utcDay(3))
	require.NoError(t, err)
	assert.Equal(t, []string{"1 Jun", "2 Jun", "3 Jun"}, view.Labels)
	require.Len(t, view.Metrics, 19)
	for _, m := range view.Metrics {
		assert.Equal(t, []float64{0, 0, 0}, m.Values)
		assert.Equal(t, "0.00", m.Total)
	}
	assert.Equal(t, "Total Sales", view.Metrics[0].Name)
	assert.Equal(t, "USD", view.Metrics[0].Prefix)
	assert.Equal(t, "%", view.Metrics[4].Suffix)
	assert.Empty(t, view.Metrics[4].Prefix)
	assert.Empty(t, view.Metrics[7].Prefix)
}

func TestGetMetricsAfterRecompute(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	rows := []models.Order{
		mkOrder("1", "c1", utcDay(1).Add(9*time.Hour), "100", "10", 1),
		mkOrder("2", "c1", utcDay(1).Add(15*time.Hour), "50", "5"),
		mkOrder("3", "c2", utcDay(2).Add(9*time.Hour), "20", "0", 2),
	}
	seedOrders(t, f, rows...)

	idx := customers.NewIndex()
	idx.Rebuild(rows)
	agg, err := NewAggregator(orders.NewRepository(f.conn), f.metrics)
	require.NoError(t, err)
	n, err := agg.Recompute(ctx, f.store.ID, idx, utcDay(1), utcDay(2))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	view, err := f.service.GetMetrics(ctx, f.store.ID, utcDay(1), utcDay(2))
	require.NoError(t, err)
	byName := map[string]MetricSeries{}
	for _, m := range view.Metrics {
		byName[m.Name] = m
	}
	assert.Equal(t, []float64{150, 20}, byName["Total Sales"].Values)
	assert.Equal(t, "170.00", byName["Total Sales"].Total)
	assert.Equal(t, "155.00", byName["Net Sales"].Total)
	assert.Equal(t, "3.00", byName["Orders"].Total)
	assert.Equal(t, "2.00", byName["New Customer Orders"].Total)
	assert.Equal(t, "56.67", byName["AOV"].Total)
	assert.Equal(t, "55.00", byName["New Customer AOV"].Total)
	assert.Equal(t, "45.00", byName["Repeat Customer AOV"].Total)
	assert.Equal(t, "66.00", byName["Gross Profit %"].Total)
}

func TestFinanceMetricsRenamesProfit(t *testing.T) {
	f := newFixture(t, false)
	view, err := f.service.FinanceMetrics(context.Background(), f.store.ID, utcDay(9), utcDay(10))
	require.NoError(t, err)
	assert.Equal(t, []string{"06-09-2024", "06-10-2024"}, view.Labels)
	names := []string{}
	for _, m := range view.Metrics {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"Total Sales", "COGS", "Net Profit", "Net Profit %"}, names)
}

func TestSpotlight(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	_, err := catalog.NewRepository(f.conn).UpsertPage(ctx, []models.Product{
		{StoreID: f.store.ID, ExternalID: "p1", Title: "Tee"},
		{StoreID: f.store.ID, ExternalID: "p2", Title: "Mug"},
	})
	require.NoError(t, err)

	big := mkOrder("1", "c1", utcDay(1).Add(time.Hour), "500", "0")
	big.LineItems = []models.LineItem{{ExternalID: "l1", ProductID: "p1", Quantity: 1, Paid: dec("500")}}
	many := mkOrder("2", "c2", utcDay(1).Add(2*time.Hour), "60", "0")
	many.LineItems = []models.LineItem{{ExternalID: "l2", ProductID: "p2", Quantity: 6, Paid: dec("60")}}
	guest := mkOrder("3", "", utcDay(1).Add(3*time.Hour), "900", "0")
	seedOrders(t, f, big, many, guest)

	spot, err := f.service.Spotlight(ctx, f.store.ID, utcDay(1), utcDay(1))
	require.NoError(t, err)
	assert.Equal(t, "Tee", spot.BiggestMover.Name)
	assert.Equal(t, "500.00", spot.BiggestMover.Amount.StringFixed(2))
	assert.Equal(t, "Mug", spot.BestSeller.Name)
	assert.EqualValues(t, 6, spot.BestSeller.Quantity)
	assert.Equal(t, "Customer c1", spot.TopCustomer.Name)

	empty, err := f.service.Spotlight(ctx, f.store.ID, utcDay(20), utcDay(21))
	require.NoError(t, err)
	assert.Empty(t, empty.BiggestMover.Name)
	assert.True(t, empty.TopCustomer.Amount.IsZero())
}

func TestMetricsReadsAreCachedUntilInvalidated(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.service.GetMetrics(ctx, f.store.ID, utcDay(1), utcDay(1))
	require.NoError(t, err)

	require.NoError(t, f.metrics.ReplaceDays(ctx, f.store.ID, []DayMetrics{derive(DayMetrics{Date: utcDay(1), Orders: 1, TotalSales: dec("10")})}))

	view, err := f.service.GetMetrics(ctx, f.store.ID, utcDay(1), utcDay(1))
	require.NoError(t, err)
	assert.Equal(t, "0.00", view.Metrics[0].Total, "served from cache")

	require.NoError(t, NewCache(f.cache, time.Minute, nil).Invalidate(ctx, f.store.ID))
	view, err = f.service.GetMetrics(ctx, f.store.ID, utcDay(1), utcDay(1))
	require.NoError(t, err)
	assert.Equal(t, "10.00", view.Metrics[0].Total)
}

func TestCacheFailuresFallThrough(t *testing.T) {
	f := newFixture(t, true)
	f.cache.fails = true
	view, err := f.service.GetMetrics(context.Background(), f.store.ID, utcDay(1), utcDay(1))
	require.NoError(t, err)
	assert.Len(t, view.Labels, 1)
}

func TestMetricsValidation(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.service.GetMetrics(ctx, f.store.ID, utcDay(3), utcDay(1))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.service.GetMetrics(ctx, f.store.ID, utcDay(1), utcDay(1).AddDate(2, 0, 0))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.service.GetMetrics(ctx, f.store.ID, time.Time{}, utcDay(1))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.service.GetMetrics(ctx, uuid.New(), utcDay(1), utcDay(1))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
