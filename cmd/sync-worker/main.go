package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storepulse-backend/internal/analytics"
	"github.com/angelmondragon/storepulse-backend/internal/cron"
	"github.com/angelmondragon/storepulse-backend/internal/stores"
	storesync "github.com/angelmondragon/storepulse-backend/internal/sync"
	"github.com/angelmondragon/storepulse-backend/pkg/config"
	"github.com/angelmondragon/storepulse-backend/pkg/db"
	"github.com/angelmondragon/storepulse-backend/pkg/logger"
	"github.com/angelmondragon/storepulse-backend/pkg/metrics"
	"github.com/angelmondragon/storepulse-backend/pkg/migrate"
	"github.com/angelmondragon/storepulse-backend/pkg/redis"
)

const serviceName = "sync-worker"

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = serviceName

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
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

	orchestrator, err := storesync.Build(storesync.BuildParams{
		Config:  cfg,
		DB:      dbClient.DB(),
		Cache:   analytics.NewCache(redisClient, cfg.Cache.MetricsTTL, logg),
		Metrics: metrics.NewSyncMetrics(prometheus.DefaultRegisterer),
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sync orchestrator", err)
		os.Exit(1)
	}

	storeRepo := stores.NewRepository(dbClient.DB())
	resyncJob, err := cron.NewResyncJob(cron.ResyncJobParams{
		Logger:      logg,
		Stores:      storeRepo,
		Syncer:      orchestrator,
		Concurrency: cfg.Sync.Concurrency,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create resync job", err)
		os.Exit(1)
	}
	staleJob, err := cron.NewStaleSyncJob(cron.StaleSyncJobParams{
		Logger:     logg,
		Stores:     storeRepo,
		StaleAfter: cfg.Sync.StaleAfter,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stale sync job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(cron.CycleLockName), cfg.Sync.ResyncInterval)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	// Stale guards are released before the resync so recovered stores join the same cycle.
	registry, err := cron.NewRegistry(staleJob, resyncJob)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   registry,
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval:   cfg.Sync.ResyncInterval,
		JobTimeout: cfg.Sync.JobTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting sync worker")

	if *once {
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "sync cycle failed", err)
			os.Exit(1)
		}
		return
	}
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sync worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "sync worker shutting down gracefully")
}
