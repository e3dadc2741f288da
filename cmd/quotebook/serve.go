package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/quotebook/internal/adapters/http"
	"github.com/jsamuelsen/quotebook/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotebook/internal/adapters/inbox"
	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/platform/telemetry"
)

func newServeCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and event stream, with scheduled sync and the import inbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), o)
		},
	}
}

func serve(ctx context.Context, o *rootOptions) error {
	cfg, logger := o.cfg, o.logger

	logger.Info("starting quotebook",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	// 1. Telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
		Insecure:     cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	// 2. Components
	rt, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			logger.Error("closing runtime", slog.Any("error", closeErr))
		}
	}()

	// 3. HTTP presentation adapter
	server := http.New(&cfg.Server, logger)
	server.OnShutdown(rt.hub.Close)

	view := func(c *gin.Context) any { return rt.service.View(c.Request.Context()) }

	http.SetupRouter(server.Engine(), http.NewDefaultRouterConfig(
		logger,
		&cfg.App,
		handlers.NewHealthHandler(handlers.HealthConfig{
			Registry:  rt.health,
			BuildInfo: handlers.NewBuildInfo(Version, Commit, BuildTime),
			Gatherer:  rt.gatherer(),
		}),
		handlers.NewQuoteHandler(rt.service),
		handlers.NewEventsHandler(rt.hub, view, 0),
	))

	watchDir, err := homedir.Expand(cfg.Import.WatchDir)
	if err != nil {
		return fmt.Errorf("resolving import dir: %w", err)
	}

	// 4. Run the server, the scheduler and the inbox until a signal arrives
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Run(ctx)
	})

	if cfg.Sync.Enabled {
		scheduler := app.NewScheduler(app.SchedulerConfig{
			Reconciler:    rt.reconciler,
			Interval:      cfg.Sync.Interval,
			PushAfterSync: cfg.Sync.PushEnabled,
			Logger:        logger,
		})

		g.Go(func() error {
			return scheduler.Run(ctx)
		})
	}

	if watchDir != "" {
		watcher := inbox.New(inbox.Config{
			Dir:      watchDir,
			Importer: rt.service,
			Logger:   logger,
		})

		g.Go(func() error {
			return watcher.Run(ctx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("shutdown complete")

	return nil
}
