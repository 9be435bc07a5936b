// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package reconcile merges mapped JSON into the local record store.
//
// The [Reconciler] decides whether a candidate field set describes a new
// record or an update of an existing one, matched by server identity, and
// writes only the fields that changed. The [Serializer] drives mapping and
// reconciliation of whole payloads inside one write transaction.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/internal/schema"
	"github.com/MKhiriev/go-record-sync/internal/store"
	"github.com/MKhiriev/go-record-sync/models"
)

// ExistingResolver lets the caller pick the local record a candidate merges
// into, e.g. to bind a create response to the record that was pushed. A nil
// record with a nil error falls back to the regular lookup.
type ExistingResolver func(tx store.Txn, entity schema.Mappable, candidate models.Fields) (*models.Record, error)

// Options tune a single Reconcile call.
type Options struct {
	// Method is the HTTP method the candidate was received from. An empty
	// method is treated as GET.
	Method models.HTTPMethod

	// Existing is consulted before the store lookup.
	Existing ExistingResolver

	// JSON is the source object, kept for diagnostics.
	JSON map[string]any
}

func (o Options) isRead() bool {
	return o.Method == "" || o.Method.IsRead()
}

// Reconciler applies candidate field sets to the store. It never opens or
// commits transactions itself.
type Reconciler struct {
	now    func() time.Time
	logger *logger.Logger
}

// NewReconciler builds a Reconciler stamping records with the wall clock.
func NewReconciler(logger *logger.Logger) *Reconciler {
	return &Reconciler{now: time.Now, logger: logger}
}

// Reconcile creates or updates the record of entity described by candidate
// inside tx and returns it.
//
// A matching record is looked up through opts.Existing, then by the local id
// carried in candidate, then by server id. When found, only the fields that
// differ are written; a read whose target is locally dirty (not synced) is
// discarded and the record returned untouched. New records default to the
// synced status. A read of a synced tombstone restores it. Every write stamps
// lastFetchedAt for reads and lastSyncedAt otherwise.
func (r *Reconciler) Reconcile(ctx context.Context, tx store.Txn, entity schema.Mappable, candidate models.Fields, opts Options) (*models.Record, error) {
	log := logger.FromContext(ctx)
	typeName := entity.TypeName()

	cand, serverID, err := r.identify(entity, candidate, opts)
	if err != nil {
		log.Err(err).
			Str("func", "Reconciler.Reconcile").
			Str("type", typeName).
			Interface("json", opts.JSON).
			Msg("cannot establish record identity")
		return nil, err
	}
	localID, _ := cand[models.FieldLocalID].(string)

	existing, err := r.lookup(tx, entity, cand, localID, serverID, opts)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		values := cand.Clone()
		if !values.Has(models.FieldSyncStatus) {
			values[models.FieldSyncStatus] = models.SyncStatusSynced
		}
		r.stamp(values, opts)

		rec, createErr := tx.Create(typeName, values, true)
		if createErr != nil {
			return nil, createErr
		}
		log.Debug().
			Str("func", "Reconciler.Reconcile").
			Str("type", typeName).
			Str("local_id", rec.LocalID).
			Str("server_id", rec.ServerID).
			Msg("record created")
		return rec, nil
	}

	if opts.isRead() && existing.SyncStatus != models.SyncStatusSynced {
		log.Debug().
			Str("func", "Reconciler.Reconcile").
			Str("type", typeName).
			Str("local_id", existing.LocalID).
			Str("sync_status", string(existing.SyncStatus)).
			Msg("keeping locally modified record")
		return existing, nil
	}

	diff := Diff(existing, cand)
	if opts.isRead() && existing.IsDeleted() && !cand.Has(models.FieldDeletedAt) {
		diff[models.FieldDeletedAt] = nil
		log.Debug().
			Str("func", "Reconciler.Reconcile").
			Str("type", typeName).
			Str("local_id", existing.LocalID).
			Msg("restoring record returned by server")
	}
	if len(diff) == 0 {
		return existing, nil
	}
	diff[models.FieldLocalID] = existing.LocalID
	r.stamp(diff, opts)

	return tx.Create(typeName, diff, true)
}

// identify validates the identity of candidate and returns a copy whose
// server id is normalized to a string under both the declared field and the
// serverId column key.
func (r *Reconciler) identify(entity schema.Mappable, candidate models.Fields, opts Options) (models.Fields, string, error) {
	idField := entity.ServerIDField()
	localID, _ := candidate[models.FieldLocalID].(string)

	if idField == "" {
		return nil, "", r.newError(ErrNoServerIdentifier, entity, candidate, opts)
	}

	raw, present := candidate[idField]
	serverID, usable := identifier(raw)

	switch {
	case !present && localID == "":
		return nil, "", r.newError(ErrNoServerIdentifier, entity, candidate, opts)
	case present && !usable && localID == "":
		return nil, "", r.newError(ErrNoPrimaryKeyValue, entity, candidate, opts)
	}

	cand := candidate.Clone()
	if usable {
		cand[idField] = serverID
		cand[models.FieldServerID] = serverID
	} else {
		delete(cand, idField)
		delete(cand, models.FieldServerID)
	}
	return cand, serverID, nil
}

func (r *Reconciler) lookup(tx store.Txn, entity schema.Mappable, cand models.Fields, localID, serverID string, opts Options) (*models.Record, error) {
	typeName := entity.TypeName()

	if opts.Existing != nil {
		rec, err := opts.Existing(tx, entity, cand)
		if err != nil || rec != nil {
			return rec, err
		}
	}

	if localID != "" {
		rec, err := tx.ObjectForPrimaryKey(typeName, localID)
		switch {
		case err == nil:
			return rec, nil
		case !errors.Is(err, store.ErrRecordNotFound):
			return nil, err
		}
	}

	if serverID == "" {
		return nil, nil
	}
	records, err := tx.Query(typeName, store.ServerIDEq(serverID))
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return records[0], nil
}

func (r *Reconciler) stamp(values models.Fields, opts Options) {
	key := models.FieldLastSyncedAt
	if opts.isRead() {
		key = models.FieldLastFetchedAt
	}
	if !values.Has(key) {
		values[key] = r.now().UTC()
	}
}

func (r *Reconciler) newError(kind error, entity schema.Mappable, candidate models.Fields, opts Options) *Error {
	e := &Error{
		Kind:   kind,
		Type:   entity.TypeName(),
		JSON:   opts.JSON,
		Fields: candidate,
	}
	if spec := entity.Mapping(); spec != nil {
		e.Mapping = spec.Table()
	}
	return e
}

// identifier converts a server id candidate to its string key. Strings must
// be non-blank and numbers integral.
func identifier(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return "", false
		}
		return v, true
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return strconv.FormatInt(i, 10), true
		}
		f, err := v.Float64()
		if err != nil || f != float64(int64(f)) {
			return "", false
		}
		return strconv.FormatInt(int64(f), 10), true
	case float64:
		if v != float64(int64(v)) {
			return "", false
		}
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case int:
		return strconv.Itoa(v), true
	}
	return "", false
}
