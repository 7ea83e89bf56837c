package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storepulse-backend/internal/repo"
	"github.com/angelmondragon/storepulse-backend/pkg/db/models"
	"github.com/angelmondragon/storepulse-backend/pkg/pagination"
)

var (
	orderConflictColumns = []clause.Column{{Name: "store_id"}, {Name: "external_id"}}
	itemConflictColumns  = []clause.Column{{Name: "store_id"}, {Name: "external_id"}}
)

// Repository persists ingested orders. Orders are create-once: a row that already
// exists for (store_id, external_id) is never rewritten.
type Repository struct {
	repo.Base
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// InsertPage writes one feed page in a single transaction and returns the orders
// that were actually inserted. Line items are only written for those.
func (r *Repository) InsertPage(ctx context.Context, page []models.Order) ([]models.Order, error) {
	if len(page) == 0 {
		return nil, nil
	}
	var inserted []models.Order
	err := r.Transaction(ctx, func(tx *gorm.DB) error {
		inserted = inserted[:0]
		for i := range page {
			order := page[i]
			items := order.LineItems
			order.LineItems = nil

			res := tx.Clauses(clause.OnConflict{Columns: orderConflictColumns, DoNothing: true}).
				Omit(clause.Associations).
				Create(&order)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}

			for j := range items {
				items[j].OrderID = order.ID
				items[j].StoreID = order.StoreID
			}
			if len(items) > 0 {
				if err := tx.Clauses(clause.OnConflict{Columns: itemConflictColumns, DoNothing: true}).
					Create(&items).Error; err != nil {
					return err
				}
			}
			order.LineItems = items
			inserted = append(inserted, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

// ListByStoreBetween returns orders with ordered_at in [from, until), oldest first,
// with line items loaded.
func (r *Repository) ListByStoreBetween(ctx context.Context, storeID uuid.UUID, from, until time.Time) ([]models.Order, error) {
	var rows []models.Order
	err := r.ForStore(ctx, storeID).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("external_id ASC") }).
		Where("ordered_at >= ? AND ordered_at < ?", from.UTC(), until.UTC()).
		Order("ordered_at ASC").
		Order("external_id ASC").
		Find(&rows).Error
	return rows, err
}

// ListAllByStore returns the identity columns of every stored order, oldest first.
// Used to rebuild the customer history index.
func (r *Repository) ListAllByStore(ctx context.Context, storeID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.ForStore(ctx, storeID).
		Select("id", "store_id", "external_id", "customer_id", "ordered_at").
		Order("ordered_at ASC").
		Order("external_id ASC").
		Find(&rows).Error
	return rows, err
}

// CustomerIDsBetween returns the distinct non-guest customers with an order in
// [from, until).
func (r *Repository) CustomerIDsBetween(ctx context.Context, storeID uuid.UUID, from, until time.Time) ([]string, error) {
	var ids []string
	err := r.ForStore(ctx, storeID).
		Model(&models.Order{}).
		Where("ordered_at >= ? AND ordered_at < ? AND customer_id <> ?", from.UTC(), until.UTC(), "").
		Distinct().
		Order("customer_id ASC").
		Pluck("customer_id", &ids).Error
	return ids, err
}

// ListByCustomers returns the identity columns of every stored order placed by
// the given customers. Rows are ordered oldest first within each IN chunk only.
func (r *Repository) ListByCustomers(ctx context.Context, storeID uuid.UUID, customerIDs []string) ([]models.Order, error) {
	var rows []models.Order
	err := repo.InChunks(customerIDs, func(chunk []string) error {
		var batch []models.Order
		if err := r.ForStore(ctx, storeID).
			Select("id", "store_id", "external_id", "customer_id", "ordered_at").
			Where("customer_id IN ?", chunk).
			Order("ordered_at ASC").
			Order("external_id ASC").
			Find(&batch).Error; err != nil {
			return err
		}
		rows = append(rows, batch...)
		return nil
	})
	return rows, err
}

// CountByStore returns how many orders are stored for the store.
func (r *Repository) CountByStore(ctx context.Context, storeID uuid.UUID) (int64, error) {
	var count int64
	err := r.ForStore(ctx, storeID).Model(&models.Order{}).Count(&count).Error
	return count, err
}

// ListPage returns the newest orders first using a keyset cursor on (ordered_at, id).
func (r *Repository) ListPage(ctx context.Context, storeID uuid.UUID, params pagination.Params) (pagination.Page[models.Order], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Order]{}, err
	}

	query := r.ForStore(ctx, storeID).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("external_id ASC") })
	if cursor != nil {
		at := cursor.At.UTC()
		query = query.Where("(ordered_at < ?) OR (ordered_at = ? AND id < ?)", at, at, cursor.ID)
	}

	var rows []models.Order
	if err := query.
		Order("ordered_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error; err != nil {
		return pagination.Page[models.Order]{}, err
	}
	return pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{At: o.OrderedAt, ID: o.ID}
	}), nil
}
