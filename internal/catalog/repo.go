package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storepulse-backend/internal/repo"
	"github.com/angelmondragon/storepulse-backend/pkg/db/models"
)

var externalKey = []clause.Column{{Name: "store_id"}, {Name: "external_id"}}

// Repository merges catalog rows. Unlike orders, products and variants are
// overwritten on every sync so titles, prices and stock stay current.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// UpsertPage writes products and their variants in one transaction and returns
// how many variants were written.
func (r *Repository) UpsertPage(ctx context.Context, products []models.Product) (int, error) {
	variants := 0
	err := r.Transaction(ctx, func(tx *gorm.DB) error {
		variants = 0
		for i := range products {
			product := products[i]
			items := product.Variants
			product.Variants = nil

			if err := tx.Clauses(clause.OnConflict{
				Columns: externalKey,
				DoUpdates: clause.AssignmentColumns([]string{
					"title", "handle", "vendor", "product_type", "status", "external_updated_at", "updated_at",
				}),
			}).Omit(clause.Associations).Create(&product).Error; err != nil {
				return err
			}

			// On conflict the generated id was discarded; read the surviving one.
			var stored models.Product
			if err := tx.Select("id").
				Where("store_id = ? AND external_id = ?", product.StoreID, product.ExternalID).
				First(&stored).Error; err != nil {
				return err
			}

			for j := range items {
				items[j].ProductID = stored.ID
				items[j].StoreID = product.StoreID
			}
			if len(items) == 0 {
				continue
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns: externalKey,
				DoUpdates: clause.AssignmentColumns([]string{
					"product_id", "external_product_id", "title", "sku", "price", "inventory_quantity", "updated_at",
				}),
			}).Create(&items).Error; err != nil {
				return err
			}
			variants += len(items)
		}
		return nil
	})
	return variants, err
}

// ListWithVariants returns the store catalog ordered by title.
func (r *Repository) ListWithVariants(ctx context.Context, storeID uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	err := r.ForStore(ctx, storeID).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("title ASC").Order("external_id ASC") }).
		Order("title ASC").
		Order("external_id ASC").
		Find(&rows).Error
	return rows, err
}

// TitlesByExternalID resolves platform product ids to titles.
func (r *Repository) TitlesByExternalID(ctx context.Context, storeID uuid.UUID, externalIDs []string) (map[string]string, error) {
	out := make(map[string]string, len(externalIDs))
	if len(externalIDs) == 0 {
		return out, nil
	}
	err := repo.InChunks(externalIDs, func(chunk []string) error {
		var rows []models.Product
		if err := r.ForStore(ctx, storeID).
			Select("external_id", "title").
			Where("external_id IN ?", chunk).
			Find(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			out[row.ExternalID] = row.Title
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// VariantSales aggregates sold line items for one variant.
type VariantSales struct {
	VariantID string
	Units     int64
	Revenue   decimal.Decimal
}

// SalesByVariant sums units and revenue per variant for orders placed in [from, until).
func (r *Repository) SalesByVariant(ctx context.Context, storeID uuid.UUID, from, until time.Time) (map[string]VariantSales, error) {
	var rows []VariantSales
	err := r.DB(ctx).
		Table("line_items AS li").
		Select("li.variant_id AS variant_id, SUM(li.quantity) AS units, SUM(li.paid) AS revenue").
		Joins("JOIN orders AS o ON o.id = li.order_id").
		Where("li.store_id = ? AND o.ordered_at >= ? AND o.ordered_at < ?", storeID, from.UTC(), until.UTC()).
		Group("li.variant_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]VariantSales, len(rows))
	for _, row := range rows {
		out[row.VariantID] = row
	}
	return out, nil
}
