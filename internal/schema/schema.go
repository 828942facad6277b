// Package schema owns the catalog tables. Migrations are embedded per
// dialect and applied with golang-migrate, so Ensure is safe on every start.
package schema

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
	"github.com/stemsi/handbook/internal/database"
)

//go:embed migrations
var migrations embed.FS

// Migrator applies the embedded migrations to one database.
type Migrator struct {
	m       *migrate.Migrate
	src     source.Driver
	release func() error
}

// NewMigrator prepares a migrator for db. The caller must Close it; Close
// never closes db itself.
func NewMigrator(ctx context.Context, db *database.DB) (*Migrator, error) {
	src, err := iofs.New(migrations, "migrations/"+string(db.Dialect))
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}

	driver, release, err := newDriver(ctx, db)
	if err != nil {
		_ = src.Close()
		return nil, err
	}

	m, err := migrate.NewWithInstance("iofs", src, string(db.Dialect), driver)
	if err != nil {
		_ = src.Close()
		_ = release()
		return nil, fmt.Errorf("init migrate: %w", err)
	}

	return &Migrator{m: m, src: src, release: release}, nil
}

func newDriver(ctx context.Context, db *database.DB) (migratedb.Driver, func() error, error) {
	switch db.Dialect {
	case database.DialectPostgres:
		// A dedicated connection keeps the advisory lock on one session.
		conn, err := db.Conn(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("acquire migration connection: %w", err)
		}
		driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("init postgres migration driver: %w", err)
		}
		return driver, driver.Close, nil

	case database.DialectSQLite:
		// The sqlite driver closes the *sql.DB on Close, so it is never closed here.
		driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("init sqlite migration driver: %w", err)
		}
		return driver, func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unsupported dialect %q", db.Dialect)
}

// Up applies all pending migrations. No pending migration is not an error.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Down reverts every applied migration.
func (mg *Migrator) Down() error {
	if err := mg.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Version returns the applied version; zero when nothing has been applied.
func (mg *Migrator) Version() (uint, bool, error) {
	v, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// Force sets the recorded version without running migrations.
func (mg *Migrator) Force(version int) error {
	return mg.m.Force(version)
}

// Close releases the migration source and connection.
func (mg *Migrator) Close() error {
	return errors.Join(mg.src.Close(), mg.release())
}

// Ensure creates the majors and units tables if they are missing.
func Ensure(ctx context.Context, db *database.DB, log zerolog.Logger) error {
	mg, err := NewMigrator(ctx, db)
	if err != nil {
		return err
	}
	defer func() {
		if err := mg.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to release migrator")
		}
	}()

	if err := mg.Up(); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := mg.Version()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("schema version %d is dirty", version)
	}

	log.Info().
		Uint("version", version).
		Str("dialect", string(db.Dialect)).
		Msg("Schema ready")
	return nil
}
