package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"eventgate/internal/bootstrap/config"
	"eventgate/internal/bootstrap/database"
	"eventgate/internal/bootstrap/logging"
	"eventgate/internal/errs"
)

// App is what commands get besides the engine service: the loaded config and
// the database handle, for schema work and diagnostics.
type App struct {
	Config config.Config
	DB     *gorm.DB
}

// InitSchema migrates the engine tables and returns the ones now present.
func (a *App) InitSchema(ctx context.Context) ([]string, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if a == nil || a.DB == nil {
		return nil, errors.New("database is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))
	logging.Info(logCtx, "start schema migration", slog.String("dsn", a.Config.Database.DSN))

	if err := database.Migrate(ctx, a.DB); err != nil {
		return nil, err
	}
	tables, err := database.Tables(ctx, a.DB)
	if err != nil {
		return nil, err
	}

	logging.Info(logCtx, "schema migration completed", slog.Int("tables", len(tables)))
	return tables, nil
}
