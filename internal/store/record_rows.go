package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MKhiriev/go-record-sync/models"
)

const recordsTable = "records"

var recordColumns = []string{
	"type",
	"local_id",
	"server_id",
	"deleted_at",
	"sync_status",
	"last_fetched_at",
	"last_synced_at",
	"fields",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		rec           models.Record
		serverID      sql.NullString
		deletedAt     int64
		status        string
		lastFetchedAt sql.NullInt64
		lastSyncedAt  sql.NullInt64
		fields        string
	)

	if err := row.Scan(
		&rec.Type,
		&rec.LocalID,
		&serverID,
		&deletedAt,
		&status,
		&lastFetchedAt,
		&lastSyncedAt,
		&fields,
	); err != nil {
		return nil, err
	}

	rec.ServerID = serverID.String
	rec.DeletedAt = fromUnixNano(deletedAt)
	rec.SyncStatus = models.SyncStatus(status)
	rec.LastFetchedAt = nullableTime(lastFetchedAt)
	rec.LastSyncedAt = nullableTime(lastSyncedAt)

	rec.Fields = models.Fields{}
	if fields != "" {
		if err := json.Unmarshal([]byte(fields), &rec.Fields); err != nil {
			return nil, fmt.Errorf("decode fields of %s/%s: %w", rec.Type, rec.LocalID, err)
		}
	}

	return &rec, nil
}

// recordArgs returns the column values of rec in recordColumns order.
func recordArgs(rec *models.Record) ([]any, error) {
	fields := rec.Fields
	if fields == nil {
		fields = models.Fields{}
	}
	encoded, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodingFields, err)
	}

	var serverID any
	if rec.ServerID != "" {
		serverID = rec.ServerID
	}

	return []any{
		rec.Type,
		rec.LocalID,
		serverID,
		toUnixNano(rec.DeletedAt),
		string(rec.SyncStatus),
		nullableUnixNano(rec.LastFetchedAt),
		nullableUnixNano(rec.LastSyncedAt),
		string(encoded),
	}, nil
}

func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func nullableUnixNano(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}

func nullableTime(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.Unix(0, n.Int64).UTC()
	return &t
}
