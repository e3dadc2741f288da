package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mitchellh/go-homedir"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/quotebook/internal/adapters/clients"
	"github.com/jsamuelsen/quotebook/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quotebook/internal/adapters/events"
	"github.com/jsamuelsen/quotebook/internal/adapters/storage"
	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/platform/config"
	"github.com/jsamuelsen/quotebook/internal/platform/metrics"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// runtime holds the wired components shared by every command.
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger

	durable  storage.Store
	hub      *events.Hub
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	health   *ports.DefaultHealthRegistry

	remote     *acl.RemoteQuotes
	reconciler *app.Reconciler
	service    *app.QuoteService
}

// build wires storage, the event hub, the remote source and the quote
// service, then starts the service. Close releases what build opened.
func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*runtime, error) {
	// 1. Durable storage; the session slot lives in memory
	path, err := homedir.Expand(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("resolving storage path: %w", err)
	}

	durable, err := storage.Open(ctx, storage.Config{
		Driver:    cfg.Storage.Driver,
		Path:      path,
		CacheSize: cfg.Storage.CacheSize,
	})
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	rt := &runtime{
		cfg:      cfg,
		logger:   logger,
		durable:  durable,
		registry: prometheus.NewRegistry(),
		health:   ports.NewHealthRegistry(),
	}

	// 2. Metrics and the presentation event hub
	rt.metrics = metrics.New(rt.registry)
	rt.hub = events.NewHub(events.HubConfig{Metrics: rt.metrics, Logger: logger})

	if err := rt.health.Register(durable); err != nil {
		return nil, errors.Join(err, rt.Close())
	}

	// 3. Remote quote feed behind the resilient client (ACL pattern)
	remote := cfg.Services.Remote

	client, err := clients.New(&clients.Config{
		BaseURL:     remote.BaseURL,
		ServiceName: remote.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		Logger:      logger,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("creating remote client: %w", err), rt.Close())
	}

	rt.remote = acl.NewRemoteQuotes(acl.RemoteQuotesConfig{
		Client:    client,
		FetchPath: remote.FetchPath,
		PushPath:  remote.PushPath,
		Category:  remote.Category,
		UserID:    remote.UserID,
		Logger:    logger,
	})

	if err := rt.health.RegisterOptional(rt.remote); err != nil {
		return nil, errors.Join(err, rt.Close())
	}

	// 4. Core components and the service facade
	store := app.NewQuoteStore(app.QuoteStoreConfig{
		Durable: durable,
		Session: storage.NewMemory(),
		Logger:  logger,
	})
	categories := app.NewCategoryIndex()
	filter := app.NewFilterState(durable, logger)

	rt.reconciler = app.NewReconciler(app.ReconcilerConfig{
		Store:       store,
		Categories:  categories,
		Filter:      filter,
		Source:      rt.remote,
		Publisher:   rt.hub,
		Metrics:     rt.metrics,
		Logger:      logger,
		Timeout:     cfg.Sync.Timeout,
		ServiceName: remote.Name,
	})

	rt.service = app.NewQuoteService(app.QuoteServiceConfig{
		Store:      store,
		Categories: categories,
		Filter:     filter,
		Publisher:  rt.hub,
		Reconciler: rt.reconciler,
		Metrics:    rt.metrics,
		Logger:     logger,
	})

	rt.service.Start(ctx)

	return rt, nil
}

// gatherer serves the quotebook collectors next to the Go runtime ones.
func (rt *runtime) gatherer() prometheus.Gatherer {
	return prometheus.Gatherers{prometheus.DefaultGatherer, rt.registry}
}

// Close ends every event subscription and closes the durable store.
func (rt *runtime) Close() error {
	if rt.hub != nil {
		rt.hub.Close()
	}

	if err := rt.durable.Close(); err != nil {
		return fmt.Errorf("closing storage: %w", err)
	}

	return nil
}
