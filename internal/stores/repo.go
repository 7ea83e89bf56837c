package stores

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storepulse-backend/internal/repo"
	"github.com/angelmondragon/storepulse-backend/pkg/db/models"
)

// Repository handles store persistence and the per-store sync guard.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to store operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByID loads a store by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.DB(ctx).Where("id = ?", id).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// TryBeginSync flips syncing to true only when it is currently false. The
// boolean reports whether this caller now owns the guard.
func (r *Repository) TryBeginSync(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Store{}).
		Where("id = ? AND syncing = ?", id, false).
		Updates(map[string]any{"syncing": true, "sync_started_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FinishSync clears the guard only while it is still held by the run that
// acquired it at startedAt. It reports false when the guard was released as
// stale and possibly taken by another run in the meantime.
func (r *Repository) FinishSync(ctx context.Context, id uuid.UUID, startedAt time.Time) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Store{}).
		Where("id = ? AND syncing = ? AND sync_started_at = ?", id, true, startedAt).
		Updates(map[string]any{"syncing": false, "sync_started_at": nil})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// AdvanceLastSync records the watermark of a fully successful run.
func (r *Repository) AdvanceLastSync(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.DB(ctx).
		Model(&models.Store{}).
		Where("id = ?", id).
		Update("last_sync_at", at).Error
}

// SetCurrencyIfEmpty stores the currency snapshot the first time one is seen.
func (r *Repository) SetCurrencyIfEmpty(ctx context.Context, id uuid.UUID, currency string) error {
	if currency == "" {
		return nil
	}
	return r.DB(ctx).
		Model(&models.Store{}).
		Where("id = ? AND currency = ?", id, "").
		Update("currency", currency).Error
}

// ListConnected returns every store carrying platform credentials.
func (r *Repository) ListConnected(ctx context.Context) ([]models.Store, error) {
	var stores []models.Store
	err := r.DB(ctx).
		Where("shop_name <> ? AND access_token <> ?", "", "").
		Order("created_at ASC").
		Find(&stores).Error
	return stores, err
}

// ReleaseStale clears guards held since before the cutoff and returns how many were released.
func (r *Repository) ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Store{}).
		Where("syncing = ? AND (sync_started_at IS NULL OR sync_started_at < ?)", true, cutoff).
		Updates(map[string]any{"syncing": false, "sync_started_at": nil})
	return res.RowsAffected, res.Error
}

// UpdateCredentials stores a new shop/token pair.
func (r *Repository) UpdateCredentials(ctx context.Context, id uuid.UUID, shopName, accessToken string) error {
	return r.DB(ctx).
		Model(&models.Store{}).
		Where("id = ?", id).
		Updates(map[string]any{"shop_name": shopName, "access_token": accessToken}).Error
}

// UpdateGoals stores the dashboard goals.
func (r *Repository) UpdateGoals(ctx context.Context, id uuid.UUID, netSales, adSpend decimal.Decimal) error {
	return r.DB(ctx).
		Model(&models.Store{}).
		Where("id = ?", id).
		Updates(map[string]any{"net_sales_goal": netSales, "ad_spend_goal": adSpend}).Error
}

// Disconnect clears credentials and purges every derived row in one transaction.
// It reports false when the store is mid-sync and nothing was changed.
func (r *Repository) Disconnect(ctx context.Context, id uuid.UUID) (bool, error) {
	disconnected := false
	err := r.Transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Store{}).
			Where("id = ? AND syncing = ?", id, false).
			Updates(map[string]any{
				"shop_name":       "",
				"access_token":    "",
				"currency":        "",
				"last_sync_at":    nil,
				"sync_started_at": nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		disconnected = true

		purge := []any{
			&models.Metric{},
			&models.CustomerOrderHistory{},
			&models.LineItem{},
			&models.Order{},
			&models.Variant{},
			&models.Product{},
		}
		for _, model := range purge {
			if err := tx.Where("store_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return disconnected, err
}
