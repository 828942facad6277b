package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// OpenSQLite opens (creating if needed) a SQLite database at path.
// Foreign keys are enforced on every connection.
func OpenSQLite(ctx context.Context, path string, log zerolog.Logger) (*DB, error) {
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	log.Info().
		Str("path", path).
		Msg("SQLite opened")

	return &DB{DB: db, Dialect: DialectSQLite}, nil
}

func sqliteDSN(path string) string {
	pragmas := []string{"_pragma=foreign_keys(1)", "_pragma=busy_timeout(5000)"}
	if path != MemoryPath {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(pragmas, "&")
}
