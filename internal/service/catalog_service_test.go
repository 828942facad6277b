package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/handbook/internal/config"
	"github.com/stemsi/handbook/internal/model"
	"github.com/stemsi/handbook/internal/repository"
	"github.com/stemsi/handbook/internal/service"
	"github.com/stemsi/handbook/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogFixture struct {
	svc    *service.CatalogService
	units  *repository.UnitRepository
	majors repository.MajorRepository
	mr     *miniredis.Miniredis
	rdb    *redis.Client
}

func newCatalogFixture(t *testing.T, withRedis bool) *catalogFixture {
	t.Helper()
	ctx := context.Background()
	db := testutil.NewDB(t)
	f := &catalogFixture{
		units:  repository.NewUnitRepository(db),
		majors: repository.NewMajorRepository(db),
	}

	if withRedis {
		f.mr = miniredis.RunT(t)
		f.rdb = redis.NewClient(&redis.Options{Addr: f.mr.Addr()})
		t.Cleanup(func() { _ = f.rdb.Close() })
	}

	cfg := &config.Config{CacheTTL: time.Minute}
	f.svc = service.NewCatalogService(f.majors, f.units, f.rdb, cfg, zerolog.Nop())

	_, err := f.majors.Upsert(ctx, "CS")
	require.NoError(t, err)
	for _, name := range []string{"Graphics", "Intro"} {
		_, err := f.units.Upsert(ctx, model.MajorScope("CS"), name)
		require.NoError(t, err)
	}
	_, err = f.units.Upsert(ctx, model.CoreScope(), "Intro")
	require.NoError(t, err)
	return f
}

func TestCatalogService_WithoutRedis(t *testing.T) {
	f := newCatalogFixture(t, false)
	ctx := context.Background()

	names, err := f.svc.UnitsByMajor(ctx, "CS")
	require.NoError(t, err)
	assert.Equal(t, []string{"Graphics", "Intro"}, names)

	majors, err := f.svc.Majors(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Major{{Title: "CS"}}, majors)

	rows, err := f.svc.UnitsByName(ctx, "Intro")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestCatalogService_CachesPerGeneration(t *testing.T) {
	f := newCatalogFixture(t, true)
	ctx := context.Background()
	filter := model.UnitFilter{Major: testutil.Strp("CS")}

	names, err := f.svc.FindUnits(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, []string{"Graphics", "Intro"}, names)

	key := config.CacheKey.UnitQueryKey("0", filter.Fingerprint())
	assert.True(t, f.mr.Exists(key))
	assert.Greater(t, f.mr.TTL(key), time.Duration(0))

	// A write behind the cache is not visible until the generation moves.
	_, err = f.units.Upsert(ctx, model.MajorScope("CS"), "Networks")
	require.NoError(t, err)

	names, err = f.svc.FindUnits(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, []string{"Graphics", "Intro"}, names)

	f.mr.Incr(config.CacheKey.CatalogGenerationKey(), 1)

	names, err = f.svc.FindUnits(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, []string{"Graphics", "Intro", "Networks"}, names)
}

func TestCatalogService_FallsBackWhenRedisDown(t *testing.T) {
	f := newCatalogFixture(t, true)
	f.mr.Close()

	names, err := f.svc.FindUnits(context.Background(), model.UnitFilter{NameContains: testutil.Strp("graph")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Graphics"}, names)
}

func TestCatalogService_MalformedCacheEntry(t *testing.T) {
	f := newCatalogFixture(t, true)
	filter := model.UnitFilter{}
	require.NoError(t, f.mr.Set(config.CacheKey.UnitQueryKey("0", filter.Fingerprint()), "{not json"))

	names, err := f.svc.FindUnits(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, []string{"Graphics", "Intro", "Intro"}, names)
}
