package catalog

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storepulse-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storepulse-backend/pkg/errors"
	"github.com/angelmondragon/storepulse-backend/pkg/logger"
	"github.com/angelmondragon/storepulse-backend/pkg/shopify"
)

// Window bounds a catalog listing by platform update time. Zero values leave that side open.
type Window struct {
	Since time.Time
	Until time.Time
}

type IngestResult struct {
	Pages    int
	Products int
	Variants int
	Cursor   string
}

type pageWriter interface {
	UpsertPage(ctx context.Context, products []models.Product) (int, error)
}

// Ingester mirrors the platform catalog into products and variants.
type Ingester struct {
	repo     pageWriter
	pageSize int
	logg     *logger.Logger
}

func NewIngester(repo pageWriter, pageSize int, logg *logger.Logger) (*Ingester, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive")
	}
	return &Ingester{repo: repo, pageSize: pageSize, logg: logg}, nil
}

// Ingest pages through products updated inside the window and upserts each page.
func (i *Ingester) Ingest(ctx context.Context, feed shopify.Feed, store models.Store, window Window) (*IngestResult, error) {
	result := &IngestResult{}
	query := shopify.ProductsQuery{
		UpdatedAtMin: window.Since,
		UpdatedAtMax: window.Until,
		Limit:        i.pageSize,
	}

	for {
		page, err := feed.ListProducts(ctx, query)
		if err != nil {
			result.Cursor = query.PageInfo
			return result, err
		}
		result.Pages++
		if len(page.Products) == 0 {
			break
		}

		batch := make([]models.Product, 0, len(page.Products))
		for _, raw := range page.Products {
			batch = append(batch, Transform(raw, store.ID))
		}
		variants, err := i.repo.UpsertPage(ctx, batch)
		if err != nil {
			result.Cursor = query.PageInfo
			return result, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist products page")
		}
		result.Products += len(batch)
		result.Variants += variants

		if i.logg != nil {
			i.logg.Debug(i.logg.WithFields(ctx, map[string]any{
				"store_id": store.ID.String(),
				"pages":    result.Pages,
				"products": result.Products,
			}), "catalog page written")
		}

		if page.NextPageInfo == "" || len(page.Products) < i.pageSize {
			break
		}
		query = shopify.ProductsQuery{Limit: i.pageSize, PageInfo: page.NextPageInfo}
	}
	return result, nil
}

// Transform maps a platform product and its variants to stored rows.
func Transform(raw shopify.Product, storeID uuid.UUID) models.Product {
	product := models.Product{
		StoreID:     storeID,
		ExternalID:  strconv.FormatInt(raw.ID, 10),
		Title:       raw.Title,
		Handle:      raw.Handle,
		Vendor:      raw.Vendor,
		ProductType: raw.ProductType,
		Status:      raw.Status,
	}
	if !raw.UpdatedAt.IsZero() {
		updated := raw.UpdatedAt.UTC()
		product.ExternalUpdatedAt = &updated
	}
	product.Variants = make([]models.Variant, 0, len(raw.Variants))
	for _, v := range raw.Variants {
		product.Variants = append(product.Variants, models.Variant{
			StoreID:           storeID,
			ExternalID:        strconv.FormatInt(v.ID, 10),
			ExternalProductID: product.ExternalID,
			Title:             v.Title,
			SKU:               v.SKU,
			Price:             v.Price.Round(2),
			InventoryQuantity: v.InventoryQuantity,
		})
	}
	return product
}
