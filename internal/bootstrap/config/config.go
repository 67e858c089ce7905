package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"eventgate/internal/bootstrap/logging"
	"eventgate/internal/errs"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Events   EventsConfig   `mapstructure:"events"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// EngineConfig holds the switches for checks the engine can run but does not run by default.
type EngineConfig struct {
	StorageTimeout             time.Duration `mapstructure:"storage_timeout"`
	EnforceEligibilityOnJoin   bool          `mapstructure:"enforce_eligibility_on_join"`
	EnforceEligibilityOnSubmit bool          `mapstructure:"enforce_eligibility_on_submit"`
	EnforceDeadline            bool          `mapstructure:"enforce_deadline"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// EventsConfig controls domain event publishing. An empty NATSURL disables it.
type EventsConfig struct {
	NATSURL       string `mapstructure:"nats_url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v, err := readViper(logCtx, configFile)
	if err != nil {
		return Config{}, err
	}
	cfg, err := decode(v)
	if err != nil {
		return Config{}, err
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.Duration("storage_timeout", cfg.Engine.StorageTimeout),
	)

	return cfg, nil
}

// Watch re-reads configFile whenever it changes on disk and hands every valid
// result to onChange. Invalid edits are logged and skipped. Watching stops
// being useful once ctx is done; viper offers no way to detach the watcher.
func Watch(ctx context.Context, configFile string, onChange func(Config)) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if strings.TrimSpace(configFile) == "" {
		return errors.New("config file is required to watch")
	}
	if onChange == nil {
		return errors.New("change handler is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))
	v, err := readViper(logCtx, configFile)
	if err != nil {
		return err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if ctx.Err() != nil {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			logging.Warn(logCtx, "ignoring invalid config change", slog.String("path", e.Name), slog.Any("err", errs.Loggable(err)))
			return
		}
		logging.Info(logCtx, "config reloaded", slog.String("path", e.Name), slog.String("op", e.Op.String()))
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

func readViper(ctx context.Context, configFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("EG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := strings.TrimSpace(configFile) != ""
	if explicit {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !explicit && errors.As(err, &notFound) {
			logging.Warn(ctx, "config file not found, fallback to defaults and env")
		} else {
			return nil, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(ctx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}
	return v, nil
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if cfg.Database.DSN == "" {
		return Config{}, errors.New("database.dsn is required")
	}
	if cfg.Engine.StorageTimeout <= 0 {
		return Config{}, errors.New("engine.storage_timeout must be positive")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "eventgate")
	v.SetDefault("app.env", "local")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".data/eventgate.sqlite")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("engine.storage_timeout", 5*time.Second)
	v.SetDefault("engine.enforce_eligibility_on_join", false)
	v.SetDefault("engine.enforce_eligibility_on_submit", false)
	v.SetDefault("engine.enforce_deadline", false)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("events.nats_url", "")
	v.SetDefault("events.subject_prefix", "eventgate")
}
