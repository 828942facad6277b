package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	"github.com/stemsi/handbook/internal/config"
)

const (
	pgApplicationName = "handbook"
	pgMaxConnIdleTime = 5 * time.Minute
)

// NewPostgresPool creates and validates a PostgreSQL connection pool.
func NewPostgresPool(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	if cfg.MaxDBConns > 0 {
		poolCfg.MaxConns = cfg.MaxDBConns
	}
	poolCfg.MaxConnIdleTime = pgMaxConnIdleTime
	if _, ok := poolCfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = pgApplicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().
		Str("host", poolCfg.ConnConfig.Host).
		Str("database", poolCfg.ConnConfig.Database).
		Int32("max_conns", poolCfg.MaxConns).
		Msg("PostgreSQL connected")

	return pool, nil
}

// OpenPostgres exposes a pgx pool through database/sql so the catalog code
// runs unchanged on every supported engine.
func OpenPostgres(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*DB, error) {
	pool, err := NewPostgresPool(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	return &DB{
		DB:      stdlib.OpenDBFromPool(pool),
		Dialect: DialectPostgres,
		pool:    pool,
	}, nil
}
