package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/handbook/internal/config"
	"github.com/stemsi/handbook/internal/model"
	"github.com/stemsi/handbook/internal/reconcile"
)

var (
	// ErrSyncInProgress is returned when another reconciliation holds the lock.
	ErrSyncInProgress = errors.New("catalog sync already in progress")
	// ErrUpstream wraps failures to obtain the handbook snapshot.
	ErrUpstream = errors.New("handbook unavailable")
)

// SnapshotSource produces the current catalog, e.g. *scraper.Client.
type SnapshotSource interface {
	Fetch(ctx context.Context) (*model.CatalogSnapshot, error)
}

// Reconciler applies a snapshot to the store, e.g. *reconcile.Engine.
type Reconciler interface {
	Reconcile(ctx context.Context, snapshot model.CatalogSnapshot) (*reconcile.Report, error)
}

const (
	// lockMargin keeps the redis lock alive slightly past the run timeout.
	lockMargin         = 30 * time.Second
	defaultSyncTimeout = 2 * time.Minute
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SyncService serializes reconciliations. Across processes the lock is a
// redis key; without redis it is a process-local mutex.
type SyncService struct {
	source  SnapshotSource
	engine  Reconciler
	rdb     *redis.Client
	timeout time.Duration
	mu      sync.Mutex
	log     zerolog.Logger
}

// NewSyncService creates a new SyncService. rdb may be nil.
func NewSyncService(source SnapshotSource, engine Reconciler, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *SyncService {
	timeout := cfg.SyncTimeout
	if timeout <= 0 {
		timeout = defaultSyncTimeout
	}
	return &SyncService{
		source:  source,
		engine:  engine,
		rdb:     rdb,
		timeout: timeout,
		log:     log.With().Str("component", "sync_service").Logger(),
	}
}

// Run fetches the handbook and reconciles it.
func (s *SyncService) Run(ctx context.Context) (*reconcile.Report, error) {
	return s.run(ctx, "scrape", func(ctx context.Context) (model.CatalogSnapshot, error) {
		snap, err := s.source.Fetch(ctx)
		if err != nil {
			return model.CatalogSnapshot{}, fmt.Errorf("%w: %w", ErrUpstream, err)
		}
		return *snap, nil
	})
}

// Apply reconciles a caller-supplied snapshot.
func (s *SyncService) Apply(ctx context.Context, snapshot model.CatalogSnapshot) (*reconcile.Report, error) {
	return s.run(ctx, "upload", func(context.Context) (model.CatalogSnapshot, error) {
		return snapshot, nil
	})
}

func (s *SyncService) run(ctx context.Context, origin string, load func(context.Context) (model.CatalogSnapshot, error)) (*reconcile.Report, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	snap, err := load(ctx)
	if err != nil {
		return nil, err
	}

	report, err := s.engine.Reconcile(ctx, snap)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	s.bumpGeneration(ctx)

	s.log.Info().
		Str("origin", origin).
		Int("inserted", report.Inserted()).
		Int64("pruned", report.Pruned()).
		Msg("Catalog synced")
	return report, nil
}

func (s *SyncService) acquire(ctx context.Context) (func(), error) {
	if s.rdb == nil {
		if !s.mu.TryLock() {
			return nil, ErrSyncInProgress
		}
		return s.mu.Unlock, nil
	}

	key := config.LockKey.CatalogSync
	token := uuid.New().String()
	ok, err := s.rdb.SetNX(ctx, key, token, s.timeout+lockMargin).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !ok {
		return nil, ErrSyncInProgress
	}

	return func() {
		// The run context may already be cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, s.rdb, []string{key}, token).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Failed to release sync lock")
		}
	}, nil
}

func (s *SyncService) bumpGeneration(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	gen, err := s.rdb.Incr(ctx, config.CacheKey.CatalogGenerationKey()).Result()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to invalidate lookup cache")
		return
	}
	s.log.Debug().Int64("generation", gen).Msg("Lookup cache invalidated")
}
