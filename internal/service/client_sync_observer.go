package service

import (
	"github.com/rs/zerolog"

	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/internal/syncer"
)

// logSyncEvents returns a scheduler observer writing one entry per task
// lifecycle event. Starts are logged at debug level, failed or cancelled
// tasks at warn level.
func logSyncEvents(log *logger.Logger) syncer.Observer {
	return func(e syncer.Event) {
		var entry *zerolog.Event
		switch {
		case e.Kind == syncer.EventStarted:
			entry = log.Debug()
		case e.Result.Success:
			entry = log.Info()
		default:
			entry = log.Warn().Err(e.Result.Err)
		}

		entry = entry.
			Str("event", e.Kind.String()).
			Str("type", e.Task.ObjectType).
			Str("local_id", e.Task.LocalID).
			Str("method", string(e.Task.Method)).
			Str("state", e.State.String())
		if e.Kind == syncer.EventCompleted && !e.Result.FinishedAt.IsZero() {
			entry = entry.Dur("elapsed", e.Result.FinishedAt.Sub(e.Result.StartedAt))
		}
		entry.Msg("sync task " + e.Kind.String())
	}
}
