package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storepulse-backend/pkg/config"
	"github.com/angelmondragon/storepulse-backend/pkg/db"
	"github.com/angelmondragon/storepulse-backend/pkg/db/models"
	"github.com/angelmondragon/storepulse-backend/pkg/logger"
)

// MaybeRunDev brings a dev database to the latest schema at boot when
// STOREPULSE_AUTO_MIGRATE is set. Other environments migrate through
// cmd/migrate. sqlite gets the GORM schema since the goose files are
// postgres only.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg == nil || !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": client.Driver()})
	start := time.Now()

	var err error
	switch client.Driver() {
	case config.DriverSQLite:
		err = models.AutoMigrate(client.DB().WithContext(ctx))
	default:
		err = gooseUp(ctx, client, logg)
	}
	if err != nil {
		return fmt.Errorf("dev schema migration (%s): %w", client.Driver(), err)
	}
	logg.Info(logg.WithField(ctx, "duration_ms", time.Since(start).Milliseconds()), "schema.migrated")
	return nil
}

// gooseUp refuses to apply a directory that fails ValidateDir.
func gooseUp(ctx context.Context, client *db.Client, logg *logger.Logger) error {
	if err := ValidateDir(DefaultDir); err != nil {
		return err
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	runner, err := NewRunner(sqlDB, DefaultDir, logg)
	if err != nil {
		return err
	}
	return runner.Apply(ctx, "up")
}
