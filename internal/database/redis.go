package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/handbook/internal/config"
)

// Redis only backs the lookup cache and the sync lock, both of which fall
// back to the database or a local mutex, so calls fail fast.
const (
	redisDialTimeout = 2 * time.Second
	redisIOTimeout   = 500 * time.Millisecond
)

// NewRedisClient connects to cfg.RedisURL. A nil client with a nil error
// means Redis is not configured.
func NewRedisClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		log.Info().Msg("Redis disabled, lookup cache and distributed sync lock are off")
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if opt.DialTimeout == 0 || opt.DialTimeout > redisDialTimeout {
		opt.DialTimeout = redisDialTimeout
	}
	if opt.ReadTimeout == 0 {
		opt.ReadTimeout = redisIOTimeout
	}
	if opt.WriteTimeout == 0 {
		opt.WriteTimeout = redisIOTimeout
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opt.Addr, err)
	}

	log.Info().
		Str("addr", opt.Addr).
		Int("db", opt.DB).
		Dur("io_timeout", opt.ReadTimeout).
		Msg("Redis connected")
	return rdb, nil
}
