package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storepulse-backend/api/routes"
	"github.com/angelmondragon/storepulse-backend/internal/analytics"
	"github.com/angelmondragon/storepulse-backend/internal/catalog"
	"github.com/angelmondragon/storepulse-backend/internal/orders"
	"github.com/angelmondragon/storepulse-backend/internal/stores"
	storesync "github.com/angelmondragon/storepulse-backend/internal/sync"
	"github.com/angelmondragon/storepulse-backend/pkg/auth"
	"github.com/angelmondragon/storepulse-backend/pkg/config"
	"github.com/angelmondragon/storepulse-backend/pkg/db"
	"github.com/angelmondragon/storepulse-backend/pkg/logger"
	"github.com/angelmondragon/storepulse-backend/pkg/metrics"
	"github.com/angelmondragon/storepulse-backend/pkg/migrate"
	"github.com/angelmondragon/storepulse-backend/pkg/redis"
	"github.com/angelmondragon/storepulse-backend/pkg/security"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	conn := dbClient.DB()
	metricsCache := analytics.NewCache(redisClient, cfg.Cache.MetricsTTL, logg)

	orchestrator, err := storesync.Build(storesync.BuildParams{
		Config:  cfg,
		DB:      conn,
		Cache:   metricsCache,
		Metrics: metrics.NewSyncMetrics(prometheus.DefaultRegisterer),
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sync orchestrator", err)
		os.Exit(1)
	}

	sealer, err := security.NewTokenSealer(cfg.Security.TokenKey)
	if err != nil {
		logg.Error(context.Background(), "invalid token key", err)
		os.Exit(1)
	}
	var storeOpts []stores.Option
	if sealer != nil {
		storeOpts = append(storeOpts, stores.WithTokenSealer(sealer))
	} else {
		logg.Warn(context.Background(), "STOREPULSE_TOKEN_KEY not set, shop tokens are stored unsealed")
	}

	storeRepo := stores.NewRepository(conn)
	storeService, err := stores.NewService(storeRepo, metricsCache, logg, storeOpts...)
	if err != nil {
		logg.Error(context.Background(), "failed to create store service", err)
		os.Exit(1)
	}

	orderRepo := orders.NewRepository(conn)
	catalogRepo := catalog.NewRepository(conn)
	analyticsService, err := analytics.NewService(analytics.ServiceParams{
		Stores:   storeRepo,
		Metrics:  analytics.NewRepository(conn),
		Orders:   orderRepo,
		Products: catalogRepo,
		Cache:    metricsCache,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create analytics service", err)
		os.Exit(1)
	}

	tokens, err := auth.NewKeys(cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to load jwt keys", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:    cfg,
			Tokens:    tokens,
			Logger:    logg,
			Gatherer:  prometheus.DefaultGatherer,
			DB:        dbClient,
			Redis:     redisClient,
			Limiter:   redisClient,
			Stores:    storeService,
			Analytics: analyticsService,
			Orders:    orders.NewService(orderRepo),
			Products:  catalog.NewReporter(catalogRepo, cfg.Sync.MarginRatio),
			Syncer:    orchestrator,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}

	// Background syncs own the store guard; let them release it before exiting.
	orchestrator.Wait()
	logg.Info(ctx, "api server stopped")
}
