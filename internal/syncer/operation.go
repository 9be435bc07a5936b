package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-record-sync/internal/adapter"
	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/internal/mapping"
	"github.com/MKhiriev/go-record-sync/internal/reconcile"
	"github.com/MKhiriev/go-record-sync/internal/schema"
	"github.com/MKhiriev/go-record-sync/internal/store"
	"github.com/MKhiriev/go-record-sync/internal/utils"
	"github.com/MKhiriev/go-record-sync/models"
	"github.com/google/uuid"
)

// Operation pushes one record to the server. It implements [Runner].
//
// The record is marked syncing, its request is rebuilt from the stored
// state, sent once, and the response is reconciled into the same record,
// adopting the server id. The record ends synced or failed; a task cancelled
// while its request is in flight puts the record back to pending. A task
// whose record was synced meanwhile sends nothing, and a DELETE answered
// with 404 counts as done.
type Operation struct {
	records    store.RecordRepository
	registry   *schema.Registry
	transport  adapter.Transport
	serializer *reconcile.Serializer
	now        func() time.Time
	logger     *logger.Logger
}

// NewOperation builds an Operation.
func NewOperation(records store.RecordRepository, registry *schema.Registry, transport adapter.Transport, serializer *reconcile.Serializer, logger *logger.Logger) *Operation {
	return &Operation{
		records:    records,
		registry:   registry,
		transport:  transport,
		serializer: serializer,
		now:        time.Now,
		logger:     logger,
	}
}

// Run implements [Runner].
func (o *Operation) Run(ctx context.Context, task models.SyncTask) models.SyncResult {
	ctx = utils.WithRequestID(ctx, uuid.NewString())
	result := models.SyncResult{StartedAt: o.now()}
	finish := func(err error) models.SyncResult {
		result.Err = err
		result.Success = err == nil
		result.FinishedAt = o.now()
		return result
	}

	entity, err := o.syncable(task.ObjectType)
	if err != nil {
		return finish(err)
	}

	req, send, err := o.begin(ctx, entity, task)
	if err != nil {
		return finish(err)
	}
	if !send {
		result.Identities = []string{task.LocalID}
		return finish(nil)
	}

	if err = ctx.Err(); err != nil {
		o.markStatus(ctx, task, models.SyncStatusPending)
		return finish(fmt.Errorf("%w: %w", ErrTaskCancelled, err))
	}

	resp, err := o.transport.Request(ctx, req)
	if err != nil && req.Method == models.MethodDelete && errors.Is(err, adapter.ErrNotFound) {
		o.logger.Debug().
			Str("func", "Operation.Run").
			Str("type", task.ObjectType).
			Str("local_id", task.LocalID).
			Msg("record already deleted on server")
		err = nil
	}
	if err != nil {
		if ctx.Err() != nil {
			o.markStatus(ctx, task, models.SyncStatusPending)
			return finish(fmt.Errorf("%w: %w", ErrTaskCancelled, err))
		}
		o.logger.Err(err).
			Str("func", "Operation.Run").
			Str("type", task.ObjectType).
			Str("local_id", task.LocalID).
			Int("status", resp.StatusCode).
			Msg("sync request failed")
		o.markStatus(ctx, task, models.SyncStatusFailed)
		return finish(err)
	}

	identities, err := o.complete(ctx, task, req, resp)
	if err != nil {
		o.logger.Err(err).
			Str("func", "Operation.Run").
			Str("type", task.ObjectType).
			Str("local_id", task.LocalID).
			Msg("failed to reconcile sync response")
		o.markStatus(ctx, task, models.SyncStatusFailed)
		return finish(err)
	}

	result.Identities = identities
	return finish(nil)
}

func (o *Operation) syncable(typeName string) (schema.Syncable, error) {
	entity, ok := o.registry.Lookup(typeName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", schema.ErrUnknownType, typeName)
	}
	syncable, ok := entity.(schema.Syncable)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotSyncable, typeName)
	}
	return syncable, nil
}

// begin loads the record, rebuilds its request and marks it syncing. A
// record with nothing to send is marked synced and send is false. A record
// that is already synced is left untouched.
func (o *Operation) begin(ctx context.Context, entity schema.Syncable, task models.SyncTask) (req models.Request, send bool, err error) {
	err = o.records.Write(ctx, func(tx store.Txn) error {
		rec, err := tx.ObjectForPrimaryKey(task.ObjectType, task.LocalID)
		if err != nil {
			return err
		}
		if rec.SyncStatus == models.SyncStatusSynced {
			req, send = models.Request{}, false
			return nil
		}

		req, send, err = BuildRequest(entity, rec)
		if err != nil {
			return err
		}
		if req.BaseURL == "" {
			req.BaseURL = task.BaseURL
		}

		values := models.Fields{models.FieldLocalID: rec.LocalID}
		if send {
			values[models.FieldSyncStatus] = models.SyncStatusSyncing
		} else {
			values[models.FieldSyncStatus] = models.SyncStatusSynced
			values[models.FieldLastSyncedAt] = o.now()
		}
		_, err = tx.Create(task.ObjectType, values, true)
		return err
	})
	if err != nil {
		return models.Request{}, false, fmt.Errorf("%w: %w", reconcile.ErrPersistenceFailure, err)
	}
	return req, send, nil
}

// complete reconciles resp into the record of task and marks it synced.
func (o *Operation) complete(ctx context.Context, task models.SyncTask, req models.Request, resp models.Response) ([]string, error) {
	var identities []string

	err := o.records.Write(context.WithoutCancel(ctx), func(tx store.Txn) error {
		identities = nil

		if req.Method != models.MethodDelete && resp.Body != nil {
			result := o.serializer.SerializeTxn(ctx, tx, task.ObjectType, resp.Body, req, reconcile.SerializeOptions{
				Existing: bindOnce(task.LocalID),
			})
			if result.Err != nil {
				return result.Err
			}
			if len(result.ItemErrors) > 0 {
				return fmt.Errorf("%w: %w", ErrReconcileFailed, errors.Join(result.ItemErrors...))
			}
		}

		rec, err := tx.ObjectForPrimaryKey(task.ObjectType, task.LocalID)
		if err != nil {
			return err
		}
		identities = []string{rec.Identity()}

		// a local edit made while the request was in flight stays pending
		if rec.SyncStatus != models.SyncStatusSyncing {
			return nil
		}
		_, err = tx.Create(task.ObjectType, models.Fields{
			models.FieldLocalID:      rec.LocalID,
			models.FieldSyncStatus:   models.SyncStatusSynced,
			models.FieldLastSyncedAt: o.now(),
		}, true)
		return err
	})
	if err != nil && !errors.Is(err, ErrReconcileFailed) && !errors.Is(err, reconcile.ErrInvalidPayload) {
		return nil, fmt.Errorf("%w: %w", reconcile.ErrPersistenceFailure, err)
	}
	return identities, err
}

// markStatus records the outcome of a task that did not complete. It runs
// detached from ctx so that a cancelled task still leaves the record in a
// consistent state.
func (o *Operation) markStatus(ctx context.Context, task models.SyncTask, status models.SyncStatus) {
	err := o.records.Write(context.WithoutCancel(ctx), func(tx store.Txn) error {
		_, err := tx.Create(task.ObjectType, models.Fields{
			models.FieldLocalID:    task.LocalID,
			models.FieldSyncStatus: status,
		}, true)
		return err
	})
	if err != nil {
		o.logger.Err(err).
			Str("func", "Operation.markStatus").
			Str("type", task.ObjectType).
			Str("local_id", task.LocalID).
			Str("status", string(status)).
			Msg("failed to update sync status")
	}
}

// bindOnce binds the first top-level item of a response to the pushed
// record.
func bindOnce(localID string) reconcile.ExistingResolver {
	bound := false
	return func(tx store.Txn, entity schema.Mappable, _ models.Fields) (*models.Record, error) {
		if bound {
			return nil, nil
		}
		bound = true
		return tx.ObjectForPrimaryKey(entity.TypeName(), localID)
	}
}

// BuildRequest returns the request that pushes rec. send is false when the
// record has nothing to send.
func BuildRequest(entity schema.Syncable, rec *models.Record) (req models.Request, send bool, err error) {
	body := map[string]any{}
	if !rec.IsDeleted() {
		body, err = mapping.Reverse(entity.Mapping(), rec)
		if err != nil {
			return models.Request{}, false, fmt.Errorf("%s: %w", entity.TypeName(), err)
		}
	}

	req, send = entity.SyncRequest(rec, body)
	return req, send, nil
}
