package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-record-sync/models"
)

// ClientSyncService defines the client-side contract for synchronising the
// local store with the remote API.
type ClientSyncService interface {
	// PushPending enqueues every pending or failed record and waits until
	// each push finished. It returns the results in enqueue order and an
	// error wrapping ErrSyncIncomplete when any push failed.
	PushPending(ctx context.Context) ([]models.SyncResult, error)

	// Fetch runs a paginated fetch of typeName with its own request.
	// pageLimit 0 fetches every page.
	Fetch(ctx context.Context, typeName string, pageLimit int) (models.FetchPagedResult, error)

	// FetchTypes fetches several types concurrently and waits for all of
	// them. The returned error joins the failed fetches.
	FetchTypes(ctx context.Context, typeNames []string, pageLimit int) (map[string]models.FetchPagedResult, error)

	// FullSync pushes pending records, then fetches every fetchable type.
	// A failing step does not prevent the following ones; the returned
	// error joins every failure.
	FullSync(ctx context.Context) error
}

// ClientSyncJob defines the contract for a background worker that
// periodically calls FullSync.
type ClientSyncJob interface {
	// Start launches the background sync goroutine. It syncs every interval,
	// defaulting to 5 minutes if interval is zero or negative. Any previously
	// running job is stopped before the new one begins.
	Start(ctx context.Context, interval time.Duration)

	// Stop signals the background goroutine to exit and blocks until it has
	// fully terminated.
	Stop()
}
