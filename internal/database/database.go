// Package database opens the relational store behind the catalog and hides
// the few differences between the supported engines.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stemsi/handbook/internal/config"
)

// Dialect names the SQL engine a DB talks to.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ParseDialect maps a configured driver name onto a Dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch driver {
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", driver)
}

// Placeholder renders the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB is a database/sql handle tagged with its dialect.
type DB struct {
	*sql.DB
	Dialect Dialect

	pool *pgxpool.Pool
}

// New wraps an already opened handle. Used by tests and by callers that
// manage the connection themselves.
func New(db *sql.DB, dialect Dialect) *DB {
	return &DB{DB: db, Dialect: dialect}
}

// Close releases the handle and, for postgres, the underlying pool.
func (db *DB) Close() error {
	err := db.DB.Close()
	if db.pool != nil {
		db.pool.Close()
	}
	return err
}

// Open connects to the configured store and verifies the connection.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*DB, error) {
	dialect, err := ParseDialect(cfg.DatabaseDriver)
	if err != nil {
		return nil, err
	}

	switch dialect {
	case DialectPostgres:
		return OpenPostgres(ctx, cfg, log)
	default:
		return OpenSQLite(ctx, cfg.DatabaseURL, log)
	}
}
