package customers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storepulse-backend/internal/repo"
	"github.com/angelmondragon/storepulse-backend/pkg/db/models"
)

const insertBatchSize = 500

// Repository persists the customer index as one row per customer.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Load reads the persisted index of a store.
func (r *Repository) Load(ctx context.Context, storeID uuid.UUID) (*Index, error) {
	var rows []models.CustomerOrderHistory
	if err := r.ForStore(ctx, storeID).Find(&rows).Error; err != nil {
		return nil, err
	}
	idx := NewIndex()
	for _, row := range rows {
		dates := make([]time.Time, 0, len(row.Dates))
		for _, d := range row.Dates {
			dates = insertSorted(dates, d.UTC())
		}
		idx.Put(&History{
			CustomerID:   row.CustomerID,
			Dates:        dates,
			FirstOrderID: row.FirstOrderID,
			FirstOrderAt: row.FirstOrderAt.UTC(),
		})
	}
	return idx, nil
}

// Replace swaps the stored index for idx in one transaction.
func (r *Repository) Replace(ctx context.Context, storeID uuid.UUID, idx *Index) error {
	rows := toRows(storeID, idx, nil)
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("store_id = ?", storeID).Delete(&models.CustomerOrderHistory{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(&rows, insertBatchSize).Error
	})
}

// Upsert writes the touched customers only.
func (r *Repository) Upsert(ctx context.Context, storeID uuid.UUID, idx *Index, touched map[string]struct{}) error {
	rows := toRows(storeID, idx, touched)
	if len(rows) == 0 {
		return nil
	}
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}, {Name: "customer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"dates", "first_order_id", "first_order_at", "order_count", "updated_at"}),
		}).CreateInBatches(&rows, insertBatchSize).Error
	})
}

func toRows(storeID uuid.UUID, idx *Index, only map[string]struct{}) []models.CustomerOrderHistory {
	if idx == nil {
		return nil
	}
	rows := make([]models.CustomerOrderHistory, 0, idx.Len())
	idx.Each(func(h *History) {
		if only != nil {
			if _, ok := only[h.CustomerID]; !ok {
				return
			}
		}
		rows = append(rows, models.CustomerOrderHistory{
			StoreID:      storeID,
			CustomerID:   h.CustomerID,
			Dates:        datatypes.JSONSlice[time.Time](h.Dates),
			FirstOrderID: h.FirstOrderID,
			FirstOrderAt: h.FirstOrderAt,
			OrderCount:   h.OrderCount(),
		})
	})
	return rows
}
