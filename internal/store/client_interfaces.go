package store

import (
	"context"

	"github.com/MKhiriev/go-record-sync/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_store_mock.go -package=mock

// RecordRepository is the local record store shared by reconciliation,
// scheduling and fetching.
type RecordRepository interface {
	// Write runs fn inside one transaction and commits when fn returns nil.
	// fn may be invoked again when the database reports a transient lock, so
	// it must not keep state across invocations.
	Write(ctx context.Context, fn func(tx Txn) error) error

	// Query returns the records of typeName matching pred outside of any
	// write transaction.
	Query(ctx context.Context, typeName string, pred Predicate) ([]*models.Record, error)

	// Get returns the record of typeName with the given local id, or
	// ErrRecordNotFound.
	Get(ctx context.Context, typeName, localID string) (*models.Record, error)
}
