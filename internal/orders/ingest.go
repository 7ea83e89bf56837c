package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storepulse-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storepulse-backend/pkg/errors"
	"github.com/angelmondragon/storepulse-backend/pkg/logger"
	"github.com/angelmondragon/storepulse-backend/pkg/shopify"
)

// Window bounds a feed listing by creation time. Zero values leave that side open.
type Window struct {
	Since time.Time
	Until time.Time
}

// IngestResult summarizes one ingestion run. It is returned alongside errors so
// callers can log how far the run got.
type IngestResult struct {
	Pages    int
	Fetched  int
	Inserted int
	Skipped  int
	// Watermark is the newest created_at of a fully written page.
	Watermark time.Time
	// Cursor is the page token the run was about to request when it stopped.
	Cursor   string
	Currency string
	Orders   []models.Order
}

type pageWriter interface {
	InsertPage(ctx context.Context, page []models.Order) ([]models.Order, error)
}

// Ingester pulls orders from a feed and stores them page by page.
type Ingester struct {
	repo     pageWriter
	ratios   Ratios
	pageSize int
	logg     *logger.Logger
}

// NewIngester wires the order ingester.
func NewIngester(repo pageWriter, ratios Ratios, pageSize int, logg *logger.Logger) (*Ingester, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive")
	}
	return &Ingester{repo: repo, ratios: ratios, pageSize: pageSize, logg: logg}, nil
}

// Ingest walks the order feed for the window. A feed or write error aborts the
// run; pages written before it stay committed.
func (i *Ingester) Ingest(ctx context.Context, feed shopify.Feed, store models.Store, window Window) (*IngestResult, error) {
	result := &IngestResult{}
	query := shopify.OrdersQuery{
		CreatedAtMin: window.Since,
		CreatedAtMax: window.Until,
		Limit:        i.pageSize,
	}

	for {
		page, err := feed.ListOrders(ctx, query)
		if err != nil {
			result.Cursor = query.PageInfo
			return result, err
		}
		result.Pages++
		if len(page.Orders) == 0 {
			break
		}
		result.Fetched += len(page.Orders)
		if result.Currency == "" {
			result.Currency = page.Orders[0].ShopCurrency()
		}

		batch := make([]models.Order, 0, len(page.Orders))
		newest := result.Watermark
		for _, raw := range page.Orders {
			order := Transform(raw, i.ratios, store.ID)
			batch = append(batch, order)
			if order.OrderedAt.After(newest) {
				newest = order.OrderedAt
			}
		}

		inserted, err := i.repo.InsertPage(ctx, batch)
		if err != nil {
			result.Cursor = query.PageInfo
			return result, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist orders page")
		}
		result.Inserted += len(inserted)
		result.Skipped += len(batch) - len(inserted)
		result.Orders = append(result.Orders, inserted...)
		result.Watermark = newest

		i.debug(ctx, store.ID, result)

		if page.NextPageInfo == "" || len(page.Orders) < i.pageSize {
			break
		}
		query = shopify.OrdersQuery{Limit: i.pageSize, PageInfo: page.NextPageInfo}
	}
	return result, nil
}

func (i *Ingester) debug(ctx context.Context, storeID uuid.UUID, result *IngestResult) {
	if i.logg == nil {
		return
	}
	ctx = i.logg.WithFields(ctx, map[string]any{
		"store_id": storeID.String(),
		"pages":    result.Pages,
		"fetched":  result.Fetched,
		"inserted": result.Inserted,
		"skipped":  result.Skipped,
	})
	i.logg.Debug(ctx, "orders page written")
}
