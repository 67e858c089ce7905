package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"eventgate/internal/bootstrap"
	"eventgate/internal/bootstrap/config"
	"eventgate/internal/bootstrap/logging"
	"eventgate/internal/errs"
	"eventgate/internal/transport/httpapi"
	"eventgate/internal/usecase/engagement"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *engagement.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		addr, _ := cmd.Flags().GetString("addr")
		watch, _ := cmd.Flags().GetBool("watch-config")

		addr = strings.TrimSpace(addr)
		if addr == "" {
			addr = app.Config.HTTP.Addr
		}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		if watch {
			if err := watchEngineOptions(ctx, svc); err != nil {
				return err
			}
		}

		server := &http.Server{
			Addr:              addr,
			Handler:           httpapi.NewRouter(ctx, svc),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serveErr := make(chan error, 1)
		go func() {
			serveErr <- server.ListenAndServe()
		}()
		logging.Info(ctx, "http api started", slog.String("addr", addr))

		select {
		case err := <-serveErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error(ctx, "http api failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "serve http api")
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errs.Wrap(err, "shutdown http api")
		}
		logging.Info(ctx, "http api stopped")
		return nil
	}),
}

// watchEngineOptions applies engine switch changes from the config file
// without a restart. Storage and transport settings still need one.
func watchEngineOptions(ctx context.Context, svc *engagement.Service) error {
	if strings.TrimSpace(cfgFile) == "" {
		return errors.New("--watch-config requires --config")
	}
	err := config.Watch(ctx, cfgFile, func(cfg config.Config) {
		svc.SetOptions(bootstrap.EngineOptions(cfg))
		logging.Info(
			ctx,
			"engine options updated",
			slog.Bool("enforce_eligibility_on_join", cfg.Engine.EnforceEligibilityOnJoin),
			slog.Bool("enforce_eligibility_on_submit", cfg.Engine.EnforceEligibilityOnSubmit),
			slog.Bool("enforce_deadline", cfg.Engine.EnforceDeadline),
		)
	})
	if err != nil {
		return errs.Wrap(err, "watch config")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default: http.addr from config)")
	serveCmd.Flags().Bool("watch-config", false, "Reload engine switches when the config file changes")
}
