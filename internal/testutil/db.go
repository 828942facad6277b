// Package testutil opens throwaway catalog databases for tests.
package testutil

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/handbook/internal/database"
	"github.com/stemsi/handbook/internal/schema"
	"github.com/stretchr/testify/require"
)

// NewDB returns a migrated in-memory SQLite database closed at test end.
func NewDB(t testing.TB) *database.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, database.MemoryPath, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, schema.Ensure(ctx, db, zerolog.Nop()))
	return db
}

// Strp returns a pointer to s.
func Strp(s string) *string { return &s }
