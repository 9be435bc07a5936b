package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-record-sync/internal/adapter"
	"github.com/MKhiriev/go-record-sync/internal/config"
	"github.com/MKhiriev/go-record-sync/internal/fetch"
	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/internal/reconcile"
	"github.com/MKhiriev/go-record-sync/internal/schema"
	"github.com/MKhiriev/go-record-sync/internal/store"
	"github.com/MKhiriev/go-record-sync/internal/syncer"
)

// ClientServices wires the sync core for one store and one remote API.
type ClientServices struct {
	Serializer  *reconcile.Serializer
	Scheduler   *syncer.Scheduler
	Manager     *syncer.Manager
	Pipeline    *fetch.Pipeline
	SyncService ClientSyncService
	SyncJob     ClientSyncJob
}

// NewClientServices builds the services and resets records left syncing by
// a previous run before the scheduler accepts work.
func NewClientServices(ctx context.Context, records store.RecordRepository, registry *schema.Registry, transport adapter.Transport, cfg config.ClientWorkers, logger *logger.Logger) (*ClientServices, error) {
	serializer := reconcile.NewSerializer(records, registry, reconcile.NewReconciler(logger), logger)
	operation := syncer.NewOperation(records, registry, transport, serializer, logger.WithComponent("operation"))
	scheduler := syncer.NewScheduler(operation, logger.WithComponent("scheduler"),
		syncer.WithConcurrency(cfg.SyncConcurrency),
		syncer.WithObserver(logSyncEvents(logger.WithComponent("sync"))),
	)
	manager := syncer.NewManager(registry, records, scheduler, logger)
	pipeline := fetch.NewPipeline(records, registry, transport, serializer, logger.WithComponent("fetch"), fetch.WithConcurrency(cfg.FetchConcurrency))

	reset, err := manager.ResetInterrupted(ctx)
	if err != nil {
		scheduler.Close()
		return nil, fmt.Errorf("prepare sync manager: %w", err)
	}
	if reset > 0 {
		logger.Info().Str("func", "NewClientServices").Int("records", reset).Msg("interrupted sync tasks reset to pending")
	}

	syncSvc := NewClientSyncService(manager, pipeline, cfg.PageLimit, logger)

	return &ClientServices{
		Serializer:  serializer,
		Scheduler:   scheduler,
		Manager:     manager,
		Pipeline:    pipeline,
		SyncService: syncSvc,
		SyncJob:     NewClientSyncJob(syncSvc, logger),
	}, nil
}

// Close stops the periodic job, cancels outstanding sync tasks and waits for
// asynchronous fetches.
func (s *ClientServices) Close() {
	s.SyncJob.Stop()
	s.Scheduler.Close()
	s.Pipeline.Wait()
}
