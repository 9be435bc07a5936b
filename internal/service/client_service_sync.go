package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MKhiriev/go-record-sync/internal/fetch"
	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/internal/syncer"
	"github.com/MKhiriev/go-record-sync/models"
)

type clientSyncService struct {
	manager   *syncer.Manager
	pipeline  *fetch.Pipeline
	pageLimit int

	logger *logger.Logger
}

// NewClientSyncService creates a ClientSyncService pushing through manager and
// fetching through pipeline. pageLimit bounds the pages of every fetch made by
// FullSync.
func NewClientSyncService(manager *syncer.Manager, pipeline *fetch.Pipeline, pageLimit int, logger *logger.Logger) ClientSyncService {
	return &clientSyncService{
		manager:   manager,
		pipeline:  pipeline,
		pageLimit: pageLimit,
		logger:    logger,
	}
}

func (s *clientSyncService) PushPending(ctx context.Context) ([]models.SyncResult, error) {
	tasks, err := s.manager.DrainPending(ctx)
	if err != nil && len(tasks) == 0 {
		return nil, fmt.Errorf("enqueue pending records: %w", err)
	}

	results, waitErr := syncer.WaitAll(ctx, tasks)
	if waitErr != nil {
		return results, waitErr
	}

	var errs []error
	if err != nil {
		errs = append(errs, err)
	}
	for i, res := range results {
		if !res.Success {
			spec := tasks[i].Spec()
			errs = append(errs, fmt.Errorf("%s/%s: %w", spec.ObjectType, spec.LocalID, mapAdapterError(res.Err)))
		}
	}

	s.logger.Info().
		Str("func", "clientSyncService.PushPending").
		Int("tasks", len(tasks)).
		Int("failed", len(errs)).
		Msg("pending records pushed")

	if len(errs) > 0 {
		return results, fmt.Errorf("%w: %w", ErrSyncIncomplete, errors.Join(errs...))
	}
	return results, nil
}

func (s *clientSyncService) Fetch(ctx context.Context, typeName string, pageLimit int) (models.FetchPagedResult, error) {
	result := s.pipeline.FetchPaged(ctx, typeName, models.Request{}, pageLimit)
	if result.Err != nil {
		return result, fmt.Errorf("fetch %s: %w", typeName, mapAdapterError(result.Err))
	}
	return result, nil
}

func (s *clientSyncService) FetchTypes(ctx context.Context, typeNames []string, pageLimit int) (map[string]models.FetchPagedResult, error) {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]models.FetchPagedResult, len(typeNames))
	)

	for _, name := range typeNames {
		wg.Add(1)
		s.pipeline.FetchPagedAsync(ctx, name, models.Request{}, pageLimit, func(result models.FetchPagedResult) {
			defer wg.Done()
			mu.Lock()
			results[name] = result
			mu.Unlock()
		})
	}
	wg.Wait()

	var errs []error
	for _, name := range typeNames {
		if err := results[name].Err; err != nil {
			errs = append(errs, fmt.Errorf("fetch %s: %w", name, mapAdapterError(err)))
		}
	}
	return results, errors.Join(errs...)
}

func (s *clientSyncService) FullSync(ctx context.Context) error {
	var errs []error

	if _, err := s.PushPending(ctx); err != nil {
		errs = append(errs, fmt.Errorf("push pending: %w", err))
	}

	if _, err := s.pipeline.FetchAll(ctx, s.pageLimit); err != nil {
		errs = append(errs, fmt.Errorf("fetch: %w", mapAdapterError(err)))
	}

	err := errors.Join(errs...)
	if err != nil {
		s.logger.Err(err).Str("func", "clientSyncService.FullSync").Msg("full sync finished with errors")
	}
	return err
}
