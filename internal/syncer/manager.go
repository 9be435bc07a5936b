package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/internal/schema"
	"github.com/MKhiriev/go-record-sync/internal/store"
	"github.com/MKhiriev/go-record-sync/models"
)

// Manager turns records into sync tasks.
type Manager struct {
	registry  *schema.Registry
	records   store.RecordRepository
	scheduler *Scheduler
	logger    *logger.Logger
}

// NewManager builds a Manager submitting to scheduler.
func NewManager(registry *schema.Registry, records store.RecordRepository, scheduler *Scheduler, logger *logger.Logger) *Manager {
	return &Manager{
		registry:  registry,
		records:   records,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Sync enqueues the push of rec. cb, which may be nil, receives the result.
// When the record already has an equal task queued or running, that task's
// handle is returned and cb is attached to it.
func (m *Manager) Sync(rec *models.Record, cb Callback) (*Task, error) {
	task, err := m.Task(rec)
	if err != nil {
		return nil, err
	}

	t, _, err := m.scheduler.Submit(task, cb)
	return t, err
}

// Task describes the push of rec without submitting it. A record with
// nothing to send gets a DELETE task without a path; running it marks the
// record synced.
func (m *Manager) Task(rec *models.Record) (models.SyncTask, error) {
	entity, ok := m.registry.Lookup(rec.Type)
	if !ok {
		return models.SyncTask{}, fmt.Errorf("%w: %s", schema.ErrUnknownType, rec.Type)
	}
	syncable, ok := entity.(schema.Syncable)
	if !ok {
		return models.SyncTask{}, fmt.Errorf("%w: %s", ErrNotSyncable, rec.Type)
	}

	req, send, err := BuildRequest(syncable, rec)
	if err != nil {
		return models.SyncTask{}, err
	}
	if !send {
		req = models.Request{Method: models.MethodDelete}
	}

	return models.SyncTask{
		ObjectType: rec.Type,
		LocalID:    rec.LocalID,
		ServerID:   rec.ServerID,
		Method:     req.Method,
		Path:       req.Path,
		Params:     req.Params,
		BaseURL:    req.BaseURL,
	}, nil
}

// DrainPending enqueues every pending or failed record of every syncable
// type and returns the handles of the tasks. Types that fail to load are
// skipped and reported in the joined error.
func (m *Manager) DrainPending(ctx context.Context) ([]*Task, error) {
	log := logger.FromContext(ctx)

	var (
		tasks []*Task
		errs  []error
	)
	for _, entity := range m.registry.Syncables() {
		records, err := m.records.Query(ctx, entity.TypeName(),
			store.SyncStatusIn(models.SyncStatusPending, models.SyncStatusFailed))
		if err != nil {
			log.Err(err).Str("func", "Manager.DrainPending").Str("type", entity.TypeName()).Msg("failed to load pending records")
			errs = append(errs, fmt.Errorf("%s: %w", entity.TypeName(), err))
			continue
		}

		for _, rec := range records {
			t, err := m.Sync(rec, nil)
			if err != nil {
				if errors.Is(err, ErrSchedulerClosed) {
					return tasks, err
				}
				log.Warn().Err(err).Str("func", "Manager.DrainPending").
					Str("type", rec.Type).Str("local_id", rec.LocalID).Msg("failed to enqueue record")
				errs = append(errs, err)
				continue
			}
			tasks = append(tasks, t)
		}
	}

	return tasks, errors.Join(errs...)
}

// ResetInterrupted puts records left syncing by an interrupted run back to
// pending. It must run before the scheduler starts dispatching.
func (m *Manager) ResetInterrupted(ctx context.Context) (int, error) {
	reset := 0
	err := m.records.Write(ctx, func(tx store.Txn) error {
		reset = 0
		for _, entity := range m.registry.Syncables() {
			records, err := tx.Query(entity.TypeName(), store.SyncStatusIn(models.SyncStatusSyncing))
			if err != nil {
				return err
			}
			for _, rec := range records {
				if _, err = tx.Create(rec.Type, models.Fields{
					models.FieldLocalID:    rec.LocalID,
					models.FieldSyncStatus: models.SyncStatusPending,
				}, true); err != nil {
					return err
				}
				reset++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("reset interrupted sync tasks: %w", err)
	}
	return reset, nil
}

// WaitAll waits until every task is finished or ctx is done, and returns
// the results in task order.
func WaitAll(ctx context.Context, tasks []*Task) ([]models.SyncResult, error) {
	results := make([]models.SyncResult, 0, len(tasks))
	for _, t := range tasks {
		res, err := t.Wait(ctx)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
