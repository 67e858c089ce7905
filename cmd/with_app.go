package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"eventgate/internal/bootstrap"
	"eventgate/internal/bootstrap/logging"
	"eventgate/internal/errs"
	"eventgate/internal/usecase/engagement"
)

const (
	appStartTimeout = 10 * time.Second
	appStopTimeout  = 10 * time.Second
)

type appRunFunc func(cmd *cobra.Command, app *bootstrap.App, svc *engagement.Service) error

// withApp boots the fx container for a single command run and stops it when
// run returns, closing the database and any broker connection.
func withApp(run appRunFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := commandContext(cmd)

		var app *bootstrap.App
		var svc *engagement.Service
		container := fx.New(appOptions(ctx, fx.Populate(&app, &svc))...)
		if err := container.Err(); err != nil {
			logging.Error(ctx, "build application failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "build fx application")
		}

		startCtx, cancelStart := context.WithTimeout(ctx, appStartTimeout)
		defer cancelStart()
		if err := container.Start(startCtx); err != nil {
			logging.Error(ctx, "bootstrap application failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "start fx application")
		}
		defer stopApp(ctx, container)

		cmd.SetContext(ctx)
		return errs.Wrap(run(cmd, app, svc), "run command")
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	attrs := []slog.Attr{
		slog.String("command", cmd.CommandPath()),
		slog.String("config_file", cfgFile),
	}
	if asUser != 0 {
		attrs = append(attrs, slog.Uint64("as_user", asUser))
	}
	return logging.WithAttrs(cmd.Context(), attrs...)
}

func appOptions(ctx context.Context, extra ...fx.Option) []fx.Option {
	opts := []fx.Option{
		bootstrap.Module,
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.SlogLogger{Logger: logging.Logger(ctx)}
			l.UseLogLevel(slog.LevelDebug)
			return l
		}),
		fx.Provide(func() context.Context { return ctx }),
		fx.Provide(
			fx.Annotate(
				func() string { return cfgFile },
				fx.ResultTags(`name:"configFile"`),
			),
		),
	}
	return append(opts, extra...)
}

func stopApp(ctx context.Context, container *fx.App) {
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), appStopTimeout)
	defer cancel()
	if err := container.Stop(stopCtx); err != nil {
		logging.Error(ctx, "fx application stop failed", slog.Any("err", errs.Loggable(err)))
	}
}
