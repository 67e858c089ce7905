package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"eventgate/internal/bootstrap/config"
	"eventgate/internal/bootstrap/database"
	"eventgate/internal/bootstrap/logging"
	cacheinfra "eventgate/internal/infrastructure/cache"
	"eventgate/internal/infrastructure/messaging"
	sqliterepo "eventgate/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "eventgate/internal/infrastructure/persistence/sqlite/uow"
	"eventgate/internal/ports"
	"eventgate/internal/usecase/engagement"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewUserRepository,
			fx.As(new(ports.UserRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewEventRepository,
			fx.As(new(ports.EventRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(providePublisher),
	fx.Provide(provideClock),
	fx.Provide(provideEngineOptions),
	fx.Provide(engagement.NewService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

// providePublisher connects to NATS when events.nats_url is set and falls back
// to dropping events otherwise.
func providePublisher(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (ports.Publisher, error) {
	if cfg.Events.NATSURL == "" {
		return messaging.NoopPublisher{}, nil
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))
	pub, err := messaging.NewNATSPublisher(logCtx, cfg.Events.NATSURL, cfg.Events.SubjectPrefix)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(stopCtx context.Context) error {
			return pub.Close(stopCtx)
		},
	})
	return pub, nil
}

func provideClock() ports.Clock {
	return ports.SystemClock{}
}

func provideEngineOptions(cfg config.Config) engagement.Options {
	return EngineOptions(cfg)
}

// EngineOptions maps the engine section of cfg onto service options.
func EngineOptions(cfg config.Config) engagement.Options {
	return engagement.Options{
		StorageTimeout:             cfg.Engine.StorageTimeout,
		EnforceEligibilityOnJoin:   cfg.Engine.EnforceEligibilityOnJoin,
		EnforceEligibilityOnSubmit: cfg.Engine.EnforceEligibilityOnSubmit,
		EnforceDeadline:            cfg.Engine.EnforceDeadline,
	}
}
