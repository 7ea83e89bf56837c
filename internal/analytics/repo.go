package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storepulse-backend/internal/repo"
	"github.com/angelmondragon/storepulse-backend/pkg/db/models"
	"github.com/angelmondragon/storepulse-backend/pkg/enums"
)

const (
	valueScale      = 4
	upsertBatchSize = 500
)

// Repository owns the metrics fact table. A missing row reads as zero.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// ReplaceDays writes the given days in one transaction: non-zero cells are
// upserted and zero cells are deleted. Days not passed in are left alone.
func (r *Repository) ReplaceDays(ctx context.Context, storeID uuid.UUID, days []DayMetrics) error {
	if len(days) == 0 {
		return nil
	}
	catalog := enums.MetricCatalog()

	var upserts []models.Metric
	zeros := map[time.Time][]enums.MetricType{}
	for _, day := range days {
		date := StartOfDay(day.Date)
		for _, def := range catalog {
			value := day.Value(def.Type).Round(valueScale)
			if value.IsZero() {
				zeros[date] = append(zeros[date], def.Type)
				continue
			}
			upserts = append(upserts, models.Metric{
				StoreID:     storeID,
				Date:        date,
				MetricType:  def.Type,
				Value:       value,
				Description: def.Description,
			})
		}
	}

	return r.Transaction(ctx, func(tx *gorm.DB) error {
		for date, metrics := range zeros {
			if err := tx.
				Where("store_id = ? AND date = ? AND metric_type IN ?", storeID, date, metrics).
				Delete(&models.Metric{}).Error; err != nil {
				return err
			}
		}
		if len(upserts) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}, {Name: "date"}, {Name: "metric_type"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "description", "updated_at"}),
		}).CreateInBatches(&upserts, upsertBatchSize).Error
	})
}

// ListRange returns stored cells for days from through to, inclusive, oldest first.
func (r *Repository) ListRange(ctx context.Context, storeID uuid.UUID, from, to time.Time, types ...enums.MetricType) ([]models.Metric, error) {
	query := r.ForStore(ctx, storeID).
		Where("date >= ? AND date <= ?", StartOfDay(from), StartOfDay(to))
	if len(types) > 0 {
		query = query.Where("metric_type IN ?", types)
	}
	var rows []models.Metric
	err := query.Order("date ASC").Order("metric_type ASC").Find(&rows).Error
	return rows, err
}
