package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storepulse-backend/api/controllers"
	analyticscontrollers "github.com/angelmondragon/storepulse-backend/api/controllers/analytics"
	ordercontrollers "github.com/angelmondragon/storepulse-backend/api/controllers/orders"
	"github.com/angelmondragon/storepulse-backend/api/middleware"
	"github.com/angelmondragon/storepulse-backend/internal/analytics"
	"github.com/angelmondragon/storepulse-backend/internal/orders"
	"github.com/angelmondragon/storepulse-backend/internal/stores"
	"github.com/angelmondragon/storepulse-backend/pkg/auth"
	"github.com/angelmondragon/storepulse-backend/pkg/config"
	"github.com/angelmondragon/storepulse-backend/pkg/db"
	"github.com/angelmondragon/storepulse-backend/pkg/enums"
	"github.com/angelmondragon/storepulse-backend/pkg/logger"
)

// Dependencies collects what the HTTP surface needs. Pingers feed /health/ready.
type Dependencies struct {
	Config    *config.Config
	Tokens    *auth.Keys
	Logger    *logger.Logger
	Gatherer  prometheus.Gatherer
	DB        db.Pinger
	Redis     db.Pinger
	Limiter   syncLimiter
	Stores    stores.Service
	Analytics analytics.Service
	Orders    orders.Service
	Products  productReporter
	Syncer    syncStarter
}

func NewRouter(deps Dependencies) http.Handler {
	cfg, logg := deps.Config, deps.Logger
	r := chi.NewRouter()
	// RequestID runs first so a recovered panic is logged with the request id.
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]db.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	triggerLimit := middleware.SyncTriggerLimit(cfg.Sync.TriggerLimit, cfg.Sync.TriggerWindow, deps.Limiter, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(deps.Tokens, logg))
		r.Use(middleware.StoreContext(logg))

		r.Route("/store", func(r chi.Router) {
			r.Get("/", controllers.StoreProfile(deps.Stores, logg))
			r.Put("/credentials", controllers.StoreConnect(deps.Stores, logg))
			r.Post("/disconnect", controllers.StoreDisconnect(deps.Stores, logg))
			r.Put("/goals", controllers.StoreGoals(deps.Stores, logg))
		})

		r.With(triggerLimit).Post("/sync", controllers.TriggerSync(deps.Syncer, enums.SyncModeFull, logg))
		r.With(triggerLimit).Post("/resync", controllers.TriggerSync(deps.Syncer, enums.SyncModeIncremental, logg))

		r.Get("/metrics", analyticscontrollers.DashboardMetrics(deps.Analytics, logg))
		r.Get("/metrics/finance", analyticscontrollers.FinanceMetrics(deps.Analytics, logg))
		r.Get("/spotlight", analyticscontrollers.Spotlight(deps.Analytics, logg))
		r.Get("/products/performance", analyticscontrollers.ProductPerformance(deps.Products, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(deps.Orders, logg))
			r.Get("/export", ordercontrollers.Export(deps.Orders, logg))
		})
	})

	return r
}
