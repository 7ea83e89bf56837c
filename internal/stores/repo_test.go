package stores

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storepulse-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storepulse-backend/pkg/db/models"
	"github.com/angelmondragon/storepulse-backend/pkg/enums"
)

func TestTryBeginSyncIsExclusive(t *testing.T) {
	conn := dbtest.Open(t)
	store := dbtest.SeedStore(t, conn)
	repo := NewRepository(conn)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	ok, err := repo.TryBeginSync(ctx, store.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TryBeginSync(ctx, store.ID, now)
	require.NoError(t, err)
	assert.False(t, ok, "second caller must not acquire the guard")

	released, err := repo.FinishSync(ctx, store.ID, now)
	require.NoError(t, err)
	assert.True(t, released)
	loaded, err := repo.FindByID(ctx, store.ID)
	require.NoError(t, err)
	assert.False(t, loaded.Syncing)
	assert.Nil(t, loaded.SyncStartedAt)

	ok, err = repo.TryBeginSync(ctx, uuid.New(), now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetCurrencyIfEmptyKeepsFirstSnapshot(t *testing.T) {
	conn := dbtest.Open(t)
	store := dbtest.SeedStore(t, conn)
	repo := NewRepository(conn)
	ctx := context.Background()

	require.NoError(t, repo.SetCurrencyIfEmpty(ctx, store.ID, "USD"))
	require.NoError(t, repo.SetCurrencyIfEmpty(ctx, store.ID, "EUR"))

	loaded, err := repo.FindByID(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, "USD", loaded.Currency)
}

func TestReleaseStaleOnlyTouchesOldGuards(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	stale := dbtest.SeedStore(t, conn)
	fresh := dbtest.SeedStore(t, conn)
	_, err := repo.TryBeginSync(ctx, stale.ID, now.Add(-3*time.Hour))
	require.NoError(t, err)
	_, err = repo.TryBeginSync(ctx, fresh.ID, now.Add(-time.Minute))
	require.NoError(t, err)

	released, err := repo.ReleaseStale(ctx, now.Add(-2*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, released)

	loaded, err := repo.FindByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Syncing)
}

func TestFinishSyncLeavesGuardTakenAfterStaleRelease(t *testing.T) {
	conn := dbtest.Open(t)
	store := dbtest.SeedStore(t, conn)
	repo := NewRepository(conn)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	startedA := now.Add(-3 * time.Hour)
	startedB := now.Add(-time.Minute)

	ok, err := repo.TryBeginSync(ctx, store.ID, startedA)
	require.NoError(t, err)
	require.True(t, ok)

	released, err := repo.ReleaseStale(ctx, now.Add(-2*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, released)

	ok, err = repo.TryBeginSync(ctx, store.ID, startedB)
	require.NoError(t, err)
	require.True(t, ok)

	// The slow first run finishes after its guard was handed over.
	finished, err := repo.FinishSync(ctx, store.ID, startedA)
	require.NoError(t, err)
	assert.False(t, finished)

	ok, err = repo.TryBeginSync(ctx, store.ID, now)
	require.NoError(t, err)
	assert.False(t, ok, "guard of the second run must survive the first run finishing")

	loaded, err := repo.FindByID(ctx, store.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Syncing)
	require.NotNil(t, loaded.SyncStartedAt)
	assert.True(t, loaded.SyncStartedAt.Equal(startedB))

	finished, err = repo.FinishSync(ctx, store.ID, startedB)
	require.NoError(t, err)
	assert.True(t, finished)
}

func TestListConnectedSkipsDisconnected(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	connected := dbtest.SeedStore(t, conn)
	dbtest.SeedStore(t, conn, func(s *models.Store) { s.AccessToken = "" })

	stores, err := repo.ListConnected(context.Background())
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, connected.ID, stores[0].ID)
}

func TestDisconnectPurgesDerivedData(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	store := dbtest.SeedStore(t, conn, func(s *models.Store) { s.Currency = "USD" })
	other := dbtest.SeedStore(t, conn)

	for _, id := range []uuid.UUID{store.ID, other.ID} {
		order := models.Order{
			StoreID:      id,
			ExternalID:   "1001",
			OrderedAt:    time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			CustomerName: "Jane Doe",
			LineItems: []models.LineItem{{
				StoreID: id, ExternalID: "5001", Name: "Tee", Quantity: 1,
			}},
		}
		require.NoError(t, conn.Create(&order).Error)
		require.NoError(t, conn.Create(&models.Metric{
			StoreID: id, Date: order.OrderedAt, MetricType: enums.MetricOrders, Value: decimal.NewFromInt(1),
		}).Error)
	}

	ok, err := repo.Disconnect(ctx, store.ID)
	require.NoError(t, err)
	require.True(t, ok)

	loaded, err := repo.FindByID(ctx, store.ID)
	require.NoError(t, err)
	assert.False(t, loaded.Connected())
	assert.Empty(t, loaded.Currency)

	var orders, items, metrics int64
	require.NoError(t, conn.Model(&models.Order{}).Where("store_id = ?", store.ID).Count(&orders).Error)
	require.NoError(t, conn.Model(&models.LineItem{}).Where("store_id = ?", store.ID).Count(&items).Error)
	require.NoError(t, conn.Model(&models.Metric{}).Where("store_id = ?", store.ID).Count(&metrics).Error)
	assert.Zero(t, orders+items+metrics)

	require.NoError(t, conn.Model(&models.Order{}).Where("store_id = ?", other.ID).Count(&orders).Error)
	assert.EqualValues(t, 1, orders, "other tenants stay untouched")
}

func TestDisconnectRefusesWhileSyncing(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	store := dbtest.SeedStore(t, conn)
	_, err := repo.TryBeginSync(ctx, store.ID, time.Now().UTC())
	require.NoError(t, err)

	ok, err := repo.Disconnect(ctx, store.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	loaded, err := repo.FindByID(ctx, store.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Connected())
}
