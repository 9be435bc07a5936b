package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/models"
)

//go:generate mockgen -source=txn.go -destination=../mock/store_txn_mock.go -package=mock

// Txn is the view of the record store available inside a write transaction.
// All changes made through it are committed or rolled back together.
type Txn interface {
	// Create inserts a record of typeName from values, a candidate field set
	// that may carry the reserved sync keys. A missing localId is generated.
	// When a record with the given localId exists, Create merges values into
	// it if updateIfExists is set and fails with ErrRecordExists otherwise.
	// Keys absent from values keep their stored value.
	Create(typeName string, values models.Fields, updateIfExists bool) (*models.Record, error)

	// Query returns the records of typeName matching pred, in insertion
	// order. A nil pred matches every record of the type.
	Query(typeName string, pred Predicate) ([]*models.Record, error)

	// ObjectForPrimaryKey returns the record of typeName with the given local
	// id, or ErrRecordNotFound.
	ObjectForPrimaryKey(typeName, localID string) (*models.Record, error)
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

type sqlTxn struct {
	ctx context.Context
	q   querier
	db  *DB
}

func (t *sqlTxn) Create(typeName string, values models.Fields, updateIfExists bool) (*models.Record, error) {
	log := logger.FromContext(t.ctx)

	if typeName == "" {
		return nil, fmt.Errorf("%w: empty type name", ErrInvalidRecord)
	}

	localID, err := stringValue(values, models.FieldLocalID)
	if err != nil {
		return nil, err
	}

	var existing *models.Record
	if localID != "" {
		existing, err = t.ObjectForPrimaryKey(typeName, localID)
		if err != nil && !errors.Is(err, ErrRecordNotFound) {
			return nil, err
		}
	} else {
		localID = t.db.idGenerator.Generate()
	}

	if existing != nil && !updateIfExists {
		return nil, fmt.Errorf("%w: %s/%s", ErrRecordExists, typeName, localID)
	}

	rec := existing
	if rec == nil {
		rec = &models.Record{
			Type:       typeName,
			LocalID:    localID,
			SyncStatus: models.SyncStatusPending,
			Fields:     models.Fields{},
		}
	}

	if err = applyValues(rec, values); err != nil {
		return nil, err
	}

	args, err := recordArgs(rec)
	if err != nil {
		return nil, err
	}
	updatedAt := t.db.now().UnixNano()

	var builder sq.Sqlizer
	if existing == nil {
		builder = psql.Insert(recordsTable).
			Columns(append(recordColumns, "updated_at")...).
			Values(append(args, updatedAt)...)
	} else {
		set := make(map[string]any, len(recordColumns))
		for i, col := range recordColumns[2:] {
			set[col] = args[i+2]
		}
		set["updated_at"] = updatedAt
		builder = psql.Update(recordsTable).
			SetMap(set).
			Where(sq.Eq{"type": typeName, "local_id": localID})
	}

	query, qArgs, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = t.q.ExecContext(t.ctx, query, qArgs...); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s %q", ErrDuplicateServerID, typeName, rec.ServerID)
		}
		log.Err(err).
			Str("func", "sqlTxn.Create").
			Str("type", typeName).
			Str("local_id", localID).
			Msg("failed to write record")
		return nil, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return rec, nil
}

func (t *sqlTxn) Query(typeName string, pred Predicate) ([]*models.Record, error) {
	log := logger.FromContext(t.ctx)

	builder := psql.Select(recordColumns...).
		From(recordsTable).
		Where(sq.Eq{"type": typeName}).
		OrderBy("rowid")
	if pred != nil {
		builder = builder.Where(pred)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := t.q.QueryContext(t.ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "sqlTxn.Query").
			Str("type", typeName).
			Msg("failed to query records")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		rec, scanErr := scanRecord(rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "sqlTxn.Query").
				Str("type", typeName).
				Msg("failed to scan record row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, scanErr)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return records, nil
}

func (t *sqlTxn) ObjectForPrimaryKey(typeName, localID string) (*models.Record, error) {
	records, err := t.Query(typeName, sq.Eq{"local_id": localID})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrRecordNotFound, typeName, localID)
	}
	return records[0], nil
}

// applyValues merges a candidate field set into rec.
func applyValues(rec *models.Record, values models.Fields) error {
	for key, v := range values {
		switch key {
		case models.FieldLocalID:
			continue

		case models.FieldServerID:
			serverID, err := stringValue(values, key)
			if err != nil {
				return err
			}
			if rec.ServerID != "" && serverID != rec.ServerID {
				return fmt.Errorf("%w: %s/%s has %q", ErrServerIDImmutable, rec.Type, rec.LocalID, rec.ServerID)
			}
			rec.ServerID = serverID

		case models.FieldDeletedAt:
			t, err := timeValue(v, key)
			if err != nil {
				return err
			}
			if t == nil {
				rec.DeletedAt = time.Time{}
			} else {
				rec.DeletedAt = t.UTC()
			}

		case models.FieldSyncStatus:
			var status models.SyncStatus
			switch s := v.(type) {
			case models.SyncStatus:
				status = s
			case string:
				status = models.SyncStatus(s)
			}
			if !status.IsValid() {
				return fmt.Errorf("%w: sync status %v", ErrInvalidRecord, v)
			}
			rec.SyncStatus = status

		case models.FieldLastFetchedAt:
			t, err := timeValue(v, key)
			if err != nil {
				return err
			}
			rec.LastFetchedAt = t

		case models.FieldLastSyncedAt:
			t, err := timeValue(v, key)
			if err != nil {
				return err
			}
			rec.LastSyncedAt = t

		default:
			if rec.Fields == nil {
				rec.Fields = models.Fields{}
			}
			rec.Fields[key] = v
		}
	}
	return nil
}

func stringValue(values models.Fields, key string) (string, error) {
	switch v := values[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	}
	return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidRecord, key, values[key])
}

func timeValue(v any, key string) (*time.Time, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		if t.IsZero() {
			return nil, nil
		}
		u := t.UTC()
		return &u, nil
	case *time.Time:
		if t == nil || t.IsZero() {
			return nil, nil
		}
		u := t.UTC()
		return &u, nil
	}
	return nil, fmt.Errorf("%w: %s must be a time, got %T", ErrInvalidRecord, key, v)
}
