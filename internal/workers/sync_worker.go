package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/internal/service"
)

type periodicSync struct {
	syncService service.ClientSyncService
	job         service.ClientSyncJob
	interval    time.Duration
	logger      *logger.Logger
}

// NewPeriodicSync returns a Worker that syncs once right away, then keeps
// job running every interval until its context is done.
func NewPeriodicSync(syncService service.ClientSyncService, job service.ClientSyncJob, interval time.Duration, logger *logger.Logger) Worker {
	return &periodicSync{
		syncService: syncService,
		job:         job,
		interval:    interval,
		logger:      logger,
	}
}

func (p *periodicSync) Run(ctx context.Context) error {
	if err := p.syncService.FullSync(ctx); err != nil {
		p.logger.Warn().Err(err).Str("func", "periodicSync.Run").Msg("initial sync failed")
	}

	p.job.Start(ctx, p.interval)
	p.logger.Info().Str("func", "periodicSync.Run").Dur("interval", p.interval).Msg("periodic sync started")

	<-ctx.Done()
	p.job.Stop()
	p.logger.Info().Str("func", "periodicSync.Run").Msg("periodic sync stopped")
	return nil
}
