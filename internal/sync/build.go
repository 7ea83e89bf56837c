package sync

import (
	"gorm.io/gorm"

	"github.com/angelmondragon/storepulse-backend/internal/analytics"
	"github.com/angelmondragon/storepulse-backend/internal/catalog"
	"github.com/angelmondragon/storepulse-backend/internal/customers"
	"github.com/angelmondragon/storepulse-backend/internal/orders"
	"github.com/angelmondragon/storepulse-backend/internal/stores"
	"github.com/angelmondragon/storepulse-backend/pkg/config"
	"github.com/angelmondragon/storepulse-backend/pkg/logger"
	"github.com/angelmondragon/storepulse-backend/pkg/metrics"
	"github.com/angelmondragon/storepulse-backend/pkg/security"
	"github.com/angelmondragon/storepulse-backend/pkg/shopify"
)

// BuildParams carries the process-level dependencies shared by the API and the worker.
type BuildParams struct {
	Config  *config.Config
	DB      *gorm.DB
	Cache   cacheInvalidator
	Metrics *metrics.SyncMetrics
	Logger  *logger.Logger
}

// Build assembles an orchestrator on the gorm repositories and the Shopify feed factory.
func Build(params BuildParams) (*Orchestrator, error) {
	cfg := params.Config
	sealer, err := security.NewTokenSealer(cfg.Security.TokenKey)
	if err != nil {
		return nil, err
	}
	var feedOpts []shopify.FactoryOption
	if sealer != nil {
		feedOpts = append(feedOpts, shopify.WithTokenOpener(sealer))
	}
	feeds := shopify.NewFactory(cfg.Shopify, params.Logger, feedOpts...)

	orderRepo := orders.NewRepository(params.DB)
	orderIngester, err := orders.NewIngester(orderRepo, orders.RatiosFromConfig(cfg.Sync), feeds.PageSize(), params.Logger)
	if err != nil {
		return nil, err
	}
	catalogIngester, err := catalog.NewIngester(catalog.NewRepository(params.DB), feeds.PageSize(), params.Logger)
	if err != nil {
		return nil, err
	}
	aggregator, err := analytics.NewAggregator(orderRepo, analytics.NewRepository(params.DB))
	if err != nil {
		return nil, err
	}

	return NewOrchestrator(OrchestratorParams{
		Stores:         stores.NewRepository(params.DB),
		Feeds:          feeds,
		Catalog:        catalogIngester,
		Orders:         orderIngester,
		OrderHistory:   orderRepo,
		Histories:      customers.NewRepository(params.DB),
		Aggregator:     aggregator,
		Cache:          params.Cache,
		Metrics:        params.Metrics,
		Logger:         params.Logger,
		LookbackMonths: cfg.Sync.LookbackMonths,
	})
}
