package workers

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Workers runs a set of workers together.
type Workers struct {
	workers []Worker
}

// New groups ws.
func New(ws ...Worker) *Workers {
	return &Workers{workers: ws}
}

// Run starts every worker on its own goroutine and blocks until all of them
// returned. The first failure cancels the others and is returned.
func (w *Workers) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, worker := range w.workers {
		g.Go(func() error {
			return worker.Run(gctx)
		})
	}
	return g.Wait()
}
