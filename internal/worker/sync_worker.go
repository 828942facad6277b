package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/handbook/internal/reconcile"
	"github.com/stemsi/handbook/internal/service"
)

// Syncer runs one scrape-and-reconcile cycle, e.g. *service.SyncService.
type Syncer interface {
	Run(ctx context.Context) (*reconcile.Report, error)
}

type SyncWorker struct {
	syncer   Syncer
	interval time.Duration
	log      zerolog.Logger
}

func NewSyncWorker(syncer Syncer, interval time.Duration, log zerolog.Logger) *SyncWorker {
	return &SyncWorker{
		syncer:   syncer,
		interval: interval,
		log:      log.With().Str("component", "sync_worker").Logger(),
	}
}

// Start syncs once immediately and then every interval until ctx is done.
// Failures are logged and the next tick retries.
func (w *SyncWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("SyncWorker started")

	w.runSafe(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("SyncWorker stopped")
			return
		case <-ticker.C:
			w.runSafe(ctx)
		}
	}
}

func (w *SyncWorker) runSafe(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error().Interface("panic", r).Msg("Recovered from panic during sync")
		}
	}()

	_, err := w.syncer.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrSyncInProgress):
		w.log.Debug().Msg("Sync skipped, another run holds the lock")
	case ctx.Err() != nil:
		// shutting down
	default:
		w.log.Error().Err(err).Msg("Scheduled sync failed")
	}
}
