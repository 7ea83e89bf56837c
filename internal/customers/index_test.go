package customers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storepulse-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storepulse-backend/pkg/db/models"
	"github.com/angelmondragon/storepulse-backend/pkg/enums"
)

func order(id, customer string, at time.Time) models.Order {
	return models.Order{ExternalID: id, CustomerID: customer, OrderedAt: at}
}

func at(d, hour int) time.Time {
	return time.Date(2024, 5, d, hour, 0, 0, 0, time.UTC)
}

func TestRebuildClassifiesFirstOrderOnly(t *testing.T) {
	idx := NewIndex()
	sameDayFirst := order("100", "c1", at(1, 9))
	sameDaySecond := order("101", "c1", at(1, 15))
	later := order("150", "c1", at(3, 9))
	guest := order("102", "", at(1, 10))

	idx.Rebuild([]models.Order{later, sameDaySecond, guest, sameDayFirst})

	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, enums.CustomerKindNew, idx.Classify(sameDayFirst))
	assert.Equal(t, enums.CustomerKindRepeat, idx.Classify(sameDaySecond))
	assert.Equal(t, enums.CustomerKindRepeat, idx.Classify(later))
	assert.Equal(t, enums.CustomerKindGuest, idx.Classify(guest))

	h, ok := idx.Get("c1")
	require.True(t, ok)
	assert.Equal(t, []time.Time{at(1, 9), at(1, 15), at(3, 9)}, h.Dates)
	assert.Equal(t, "100", h.FirstOrderID)
}

func TestTiesBreakOnExternalID(t *testing.T) {
	idx := NewIndex()
	idx.Rebuild([]models.Order{order("10", "c1", at(1, 9)), order("9", "c1", at(1, 9))})
	assert.True(t, idx.IsNew(order("9", "c1", at(1, 9))))
	assert.False(t, idx.IsNew(order("10", "c1", at(1, 9))))
}

func TestExtendReturnsTouchedCustomers(t *testing.T) {
	idx := NewIndex()
	idx.Rebuild([]models.Order{order("1", "c1", at(1, 9))})

	touched := idx.Extend([]models.Order{
		order("2", "c1", at(4, 9)),
		order("3", "c2", at(4, 10)),
		order("4", "", at(4, 11)),
	})
	assert.Equal(t, map[string]struct{}{"c1": {}, "c2": {}}, touched)
	assert.False(t, idx.IsNew(order("2", "c1", at(4, 9))))
	assert.True(t, idx.IsNew(order("3", "c2", at(4, 10))))
	assert.False(t, idx.IsNew(order("5", "unknown", at(4, 10))))

	h, _ := idx.Get("c1")
	assert.Equal(t, 2, h.OrderCount())
}

func TestRefreshRebuildsCustomersFromStoredOrders(t *testing.T) {
	idx := NewIndex()
	idx.Rebuild([]models.Order{order("1", "c1", at(1, 9)), order("2", "c2", at(2, 9))})

	// c3's first order is stored but was never merged into the index.
	stored := []models.Order{
		order("7", "c3", at(5, 9)),
		order("8", "c3", at(6, 9)),
		order("1", "c1", at(1, 9)),
		order("6", "c1", at(5, 12)),
		order("2", "c2", at(2, 9)),
	}
	touched := idx.Refresh(stored, []string{"c1", "c3", ""})

	assert.Equal(t, map[string]struct{}{"c1": {}, "c3": {}}, touched)
	assert.True(t, idx.IsNew(order("7", "c3", at(5, 9))))
	assert.False(t, idx.IsNew(order("8", "c3", at(6, 9))))

	c1, ok := idx.Get("c1")
	require.True(t, ok)
	assert.Equal(t, []time.Time{at(1, 9), at(5, 12)}, c1.Dates, "refresh must not double count known orders")

	c2, ok := idx.Get("c2")
	require.True(t, ok)
	assert.Equal(t, 1, c2.OrderCount(), "customers outside the refresh are left alone")
}

func TestUnindexedReportsCustomersWithoutHistory(t *testing.T) {
	idx := NewIndex()
	idx.Rebuild([]models.Order{order("1", "c1", at(1, 9))})

	assert.Equal(t, enums.CustomerKindRepeat, idx.Classify(order("5", "ghost", at(3, 9))))
	assert.Equal(t, enums.CustomerKindGuest, idx.Classify(order("6", "", at(3, 9))))
	assert.True(t, idx.IsNew(order("1", "c1", at(1, 9))))
	assert.Equal(t, []string{"ghost"}, idx.Unindexed())

	idx.Extend([]models.Order{order("5", "ghost", at(3, 9))})
	assert.Empty(t, idx.Unindexed())
	assert.True(t, idx.IsNew(order("5", "ghost", at(3, 9))))
}

func TestRepositoryReplaceLoadUpsert(t *testing.T) {
	conn := dbtest.Open(t)
	store := dbtest.SeedStore(t, conn)
	repo := NewRepository(conn)
	ctx := context.Background()

	idx := NewIndex()
	idx.Rebuild([]models.Order{order("1", "c1", at(1, 9)), order("2", "c2", at(2, 9))})
	require.NoError(t, repo.Replace(ctx, store.ID, idx))

	loaded, err := repo.Load(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
	h, ok := loaded.Get("c1")
	require.True(t, ok)
	assert.True(t, h.FirstOrderAt.Equal(at(1, 9)))
	require.Len(t, h.Dates, 1)
	assert.True(t, h.Dates[0].Equal(at(1, 9)))

	touched := loaded.Extend([]models.Order{order("3", "c1", at(5, 9)), order("4", "c3", at(5, 10))})
	require.NoError(t, repo.Upsert(ctx, store.ID, loaded, touched))

	reloaded, err := repo.Load(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.Len())
	h, _ = reloaded.Get("c1")
	assert.Equal(t, 2, h.OrderCount())
	assert.Equal(t, "1", h.FirstOrderID)

	var rows []models.CustomerOrderHistory
	require.NoError(t, conn.Where("store_id = ?", store.ID).Find(&rows).Error)
	assert.Len(t, rows, 3)

	replacement := NewIndex()
	replacement.Rebuild([]models.Order{order("9", "c9", at(9, 9))})
	require.NoError(t, repo.Replace(ctx, store.ID, replacement))
	reloaded, err = repo.Load(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Len())
	_, ok = reloaded.Get("c9")
	assert.True(t, ok)
}
