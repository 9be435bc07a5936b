package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-record-sync/internal/adapter"
	"github.com/MKhiriev/go-record-sync/internal/config"
	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/internal/schema"
	"github.com/MKhiriev/go-record-sync/internal/service"
	"github.com/MKhiriev/go-record-sync/internal/store"
	"github.com/MKhiriev/go-record-sync/internal/workers"
	"github.com/MKhiriev/go-record-sync/models"
)

// App owns the storage, transport and services of one client process.
type App struct {
	services *service.ClientServices
	storages *store.ClientStorages
	registry *schema.Registry
	workers  config.ClientWorkers
	logger   *logger.Logger
}

// NewApp loads the schema, opens the local store, connects the transport and
// builds the sync services described by cfg.
func NewApp(ctx context.Context, cfg *config.ClientConfig, log *logger.Logger) (*App, error) {
	if err := logger.SetLevel(cfg.App.LogLevel); err != nil {
		return nil, fmt.Errorf("set log level: %w", err)
	}

	registry, err := schema.LoadFile(cfg.App.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	transport, err := adapter.NewHTTPTransport(cfg.Adapter, log.WithComponent("transport"))
	if err != nil {
		return nil, fmt.Errorf("create transport: %w", err)
	}

	storages, err := store.NewClientStorages(ctx, cfg.Storage, log.WithComponent("store"))
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}

	services, err := service.NewClientServices(ctx, storages.Records, registry, transport, cfg.Workers, log)
	if err != nil {
		_ = storages.Close()
		return nil, fmt.Errorf("create client services: %w", err)
	}

	log.Info().
		Str("func", "NewApp").
		Int("types", len(registry.Types())).
		Str("server", cfg.Adapter.HTTPAddress).
		Msg("client app initialised")

	return &App{
		services: services,
		storages: storages,
		registry: registry,
		workers:  cfg.Workers,
		logger:   log,
	}, nil
}

// Types returns the names of every registered record type.
func (a *App) Types() []string {
	types := a.registry.Types()
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.TypeName())
	}
	return names
}

// Fetch runs a paginated fetch of typeName. pageLimit 0 falls back to the
// configured page limit.
func (a *App) Fetch(ctx context.Context, typeName string, pageLimit int) (models.FetchPagedResult, error) {
	if pageLimit == 0 {
		pageLimit = a.workers.PageLimit
	}
	return a.services.SyncService.Fetch(ctx, typeName, pageLimit)
}

// FetchTypes fetches typeNames concurrently. pageLimit 0 falls back to the
// configured page limit.
func (a *App) FetchTypes(ctx context.Context, typeNames []string, pageLimit int) (map[string]models.FetchPagedResult, error) {
	if pageLimit == 0 {
		pageLimit = a.workers.PageLimit
	}
	return a.services.SyncService.FetchTypes(ctx, typeNames, pageLimit)
}

// FetchAll fetches every fetchable type with the configured page limit.
func (a *App) FetchAll(ctx context.Context) (map[string]models.FetchPagedResult, error) {
	return a.services.Pipeline.FetchAll(ctx, a.workers.PageLimit)
}

// Sync pushes every pending or failed record and waits for the results.
func (a *App) Sync(ctx context.Context) ([]models.SyncResult, error) {
	return a.services.SyncService.PushPending(ctx)
}

// Run syncs periodically until ctx is done.
func (a *App) Run(ctx context.Context) error {
	periodic := workers.NewPeriodicSync(
		a.services.SyncService,
		a.services.SyncJob,
		a.workers.SyncInterval,
		a.logger.WithComponent("worker"),
	)

	err := workers.New(periodic).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close stops the services and releases the local store.
func (a *App) Close() error {
	a.services.Close()
	if err := a.storages.Close(); err != nil {
		return fmt.Errorf("close local storage: %w", err)
	}
	return nil
}
