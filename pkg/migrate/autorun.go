package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/gigbook-backend/pkg/config"
	"github.com/angelmondragon/gigbook-backend/pkg/db"
	"github.com/angelmondragon/gigbook-backend/pkg/logger"
)

// MaybeRunDev applies the embedded migrations on boot when running in dev with
// GIGBOOK_AUTO_MIGRATE set. The SQL is Postgres-specific, so other drivers
// are skipped.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !shouldAutoRun(cfg) {
		return nil
	}

	files, err := ValidateFS(FS, embeddedDir)
	if err != nil {
		return fmt.Errorf("embedded migrations invalid: %w", err)
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"migrations": len(files),
		"latest":     files[len(files)-1].Version,
	})
	logg.Info(ctx, "migrate.autorun_started")

	migrator, err := NewMigrator(sqlDB, "")
	if err != nil {
		return err
	}
	results, err := migrator.Up(ctx)
	if err != nil {
		return err
	}

	logg.Info(logg.WithField(ctx, "applied", len(results)), "migrate.autorun_completed")
	return nil
}

func shouldAutoRun(cfg *config.Config) bool {
	if cfg == nil || !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return false
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.DB.Driver))
	return driver == "" || driver == db.DriverPostgres
}
