package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DATABASE_DRIVER", "DATABASE_URL", "REDIS_URL", "SYNC_INTERVAL_MINUTES", "CACHE_TTL_SECONDS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "handbook.db", cfg.DatabaseURL)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, time.Duration(0), cfg.SyncInterval)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, DefaultHandbookURL, cfg.HandbookURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "Postgres")
	t.Setenv("SYNC_INTERVAL_MINUTES", "30")
	t.Setenv("MAX_DB_CONNS", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()

	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, 30*time.Minute, cfg.SyncInterval)
	assert.Equal(t, int32(16), cfg.MaxDBConns)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "catalog:v3:units:m=-;c=-;n=-", CacheKey.UnitQueryKey("3", "m=-;c=-;n=-"))
	assert.Equal(t, "lock:catalog_sync", LockKey.CatalogSync)
}
