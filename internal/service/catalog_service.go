package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/handbook/internal/config"
	"github.com/stemsi/handbook/internal/model"
	"github.com/stemsi/handbook/internal/repository"
)

// CatalogService answers read-only catalog lookups.
//
// With redis configured, unit lookups are cached per catalog generation.
// SyncService bumps the generation after every committed reconciliation,
// which orphans all cached lookups at once; they then expire by TTL.
type CatalogService struct {
	majors repository.MajorRepository
	units  *repository.UnitRepository
	rdb    *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewCatalogService creates a new CatalogService. rdb may be nil.
func NewCatalogService(majors repository.MajorRepository, units *repository.UnitRepository, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		majors: majors,
		units:  units,
		rdb:    rdb,
		ttl:    cfg.CacheTTL,
		log:    log.With().Str("component", "catalog_service").Logger(),
	}
}

// Majors lists every known major ordered by title.
func (s *CatalogService) Majors(ctx context.Context) ([]model.Major, error) {
	return s.majors.GetAll(ctx)
}

// UnitsByMajor returns the unit names attached to a major.
func (s *CatalogService) UnitsByMajor(ctx context.Context, title string) ([]string, error) {
	return s.FindUnits(ctx, model.UnitFilter{Major: &title})
}

// UnitsByName returns every unit row carrying exactly this name.
func (s *CatalogService) UnitsByName(ctx context.Context, name string) ([]model.Unit, error) {
	return s.units.FindByName(ctx, name)
}

// FindUnits returns unit names matching the filter. Cache failures are
// logged and answered from the database.
func (s *CatalogService) FindUnits(ctx context.Context, f model.UnitFilter) ([]string, error) {
	if s.rdb == nil {
		return s.units.Find(ctx, f)
	}

	gen, err := s.rdb.Get(ctx, config.CacheKey.CatalogGenerationKey()).Result()
	switch {
	case errors.Is(err, redis.Nil):
		gen = "0"
	case err != nil:
		s.log.Warn().Err(err).Msg("Cache unavailable, reading from database")
		return s.units.Find(ctx, f)
	}

	key := config.CacheKey.UnitQueryKey(gen, f.Fingerprint())
	if raw, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var names []string
		if err := json.Unmarshal(raw, &names); err == nil {
			return names, nil
		}
		s.log.Warn().Str("key", key).Msg("Discarding malformed cache entry")
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Cache read failed")
	}

	names, err := s.units.Find(ctx, f)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(names); err == nil {
		if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
		}
	}
	return names, nil
}
