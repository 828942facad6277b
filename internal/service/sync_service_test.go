package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/handbook/internal/config"
	"github.com/stemsi/handbook/internal/model"
	"github.com/stemsi/handbook/internal/reconcile"
	"github.com/stemsi/handbook/internal/repository"
	"github.com/stemsi/handbook/internal/service"
	"github.com/stemsi/handbook/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	snap    *model.CatalogSnapshot
	err     error
	started chan struct{}
	block   chan struct{}
}

func (s *fakeSource) Fetch(ctx context.Context) (*model.CatalogSnapshot, error) {
	if s.started != nil {
		close(s.started)
	}
	if s.block != nil {
		<-s.block
	}
	return s.snap, s.err
}

func newEngine(t *testing.T) (*reconcile.Engine, *repository.UnitRepository) {
	t.Helper()
	db := testutil.NewDB(t)
	units := repository.NewUnitRepository(db)
	return reconcile.NewEngine(db, repository.NewMajorRepository(db), units, zerolog.Nop()), units
}

func snapshot() *model.CatalogSnapshot {
	return &model.CatalogSnapshot{
		Majors:    []model.MajorUnits{{Title: "CS", Units: []string{"Algo101"}}},
		Cores:     []string{"Math101"},
		Electives: []string{"Art101"},
	}
}

func syncConfig() *config.Config {
	return &config.Config{SyncTimeout: 10 * time.Second}
}

func TestSyncService_RunWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	engine, units := newEngine(t)
	svc := service.NewSyncService(&fakeSource{snap: snapshot()}, engine, rdb, syncConfig(), zerolog.Nop())

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Inserted())

	names, err := units.Find(context.Background(), model.UnitFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Algo101", "Math101", "Art101"}, names)

	gen, err := mr.Get(config.CacheKey.CatalogGenerationKey())
	require.NoError(t, err)
	assert.Equal(t, "1", gen)
	assert.False(t, mr.Exists(config.LockKey.CatalogSync))
}

func TestSyncService_LockHeldElsewhere(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()
	require.NoError(t, mr.Set(config.LockKey.CatalogSync, "other-instance"))

	engine, _ := newEngine(t)
	svc := service.NewSyncService(&fakeSource{snap: snapshot()}, engine, rdb, syncConfig(), zerolog.Nop())

	_, err := svc.Run(context.Background())
	assert.ErrorIs(t, err, service.ErrSyncInProgress)

	// Another holder's lock is never released by us.
	v, err := mr.Get(config.LockKey.CatalogSync)
	require.NoError(t, err)
	assert.Equal(t, "other-instance", v)
}

func TestSyncService_LocalLockSerializesRuns(t *testing.T) {
	engine, _ := newEngine(t)
	src := &fakeSource{snap: snapshot(), started: make(chan struct{}), block: make(chan struct{})}
	svc := service.NewSyncService(src, engine, nil, syncConfig(), zerolog.Nop())

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = svc.Run(context.Background())
	}()

	<-src.started
	_, err := svc.Apply(context.Background(), *snapshot())
	assert.ErrorIs(t, err, service.ErrSyncInProgress)

	close(src.block)
	wg.Wait()
	require.NoError(t, firstErr)

	// The lock is free again.
	_, err = svc.Apply(context.Background(), *snapshot())
	assert.NoError(t, err)
}

func TestSyncService_UpstreamFailure(t *testing.T) {
	engine, _ := newEngine(t)
	svc := service.NewSyncService(&fakeSource{err: errors.New("dial tcp: timeout")}, engine, nil, syncConfig(), zerolog.Nop())

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrUpstream)
}

func TestSyncService_InvalidSnapshotKeepsGeneration(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	engine, _ := newEngine(t)
	svc := service.NewSyncService(&fakeSource{}, engine, rdb, syncConfig(), zerolog.Nop())

	_, err := svc.Apply(context.Background(), model.CatalogSnapshot{Cores: []string{""}})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidSnapshot)
	assert.False(t, mr.Exists(config.CacheKey.CatalogGenerationKey()))
	assert.False(t, mr.Exists(config.LockKey.CatalogSync))
}
