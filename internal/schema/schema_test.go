package schema_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/handbook/internal/database"
	"github.com/stemsi/handbook/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.OpenSQLite(context.Background(), database.MemoryPath, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestEnsure_Idempotent(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	require.NoError(t, schema.Ensure(ctx, db, zerolog.Nop()))
	require.NoError(t, schema.Ensure(ctx, db, zerolog.Nop()))

	// The shared handle must survive the migrator being released.
	require.NoError(t, db.PingContext(ctx))

	var n int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('majors', 'units')`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestSchema_Constraints(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	require.NoError(t, schema.Ensure(ctx, db, zerolog.Nop()))

	_, err := db.ExecContext(ctx, `INSERT INTO majors (title) VALUES ('CS')`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO units (name, category, major_title) VALUES ('Intro', 'core', NULL)`)
	require.NoError(t, err)

	t.Run("core identity ignores null scope", func(t *testing.T) {
		_, err := db.ExecContext(ctx, `INSERT INTO units (name, category, major_title) VALUES ('Intro', 'core', NULL)`)
		require.Error(t, err)
		assert.True(t, database.IsUniqueViolation(err))
	})

	t.Run("same name in another scope", func(t *testing.T) {
		_, err := db.ExecContext(ctx, `INSERT INTO units (name, category, major_title) VALUES ('Intro', 'major', 'CS')`)
		assert.NoError(t, err)
		_, err = db.ExecContext(ctx, `INSERT INTO units (name, category, major_title) VALUES ('Intro', 'elective', NULL)`)
		assert.NoError(t, err)
	})

	t.Run("major unit needs a known major", func(t *testing.T) {
		_, err := db.ExecContext(ctx, `INSERT INTO units (name, category, major_title) VALUES ('X', 'major', 'Nope')`)
		require.Error(t, err)
		assert.True(t, database.IsConstraintViolation(err))
		assert.False(t, database.IsUniqueViolation(err))
	})

	t.Run("category and scope must agree", func(t *testing.T) {
		_, err := db.ExecContext(ctx, `INSERT INTO units (name, category, major_title) VALUES ('Y', 'core', 'CS')`)
		require.Error(t, err)
		assert.True(t, database.IsConstraintViolation(err))

		_, err = db.ExecContext(ctx, `INSERT INTO units (name, category, major_title) VALUES ('Z', 'major', NULL)`)
		require.Error(t, err)
		assert.True(t, database.IsConstraintViolation(err))
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := db.ExecContext(ctx, `INSERT INTO units (name, category, major_title) VALUES ('W', 'minor', NULL)`)
		require.Error(t, err)
		assert.True(t, database.IsConstraintViolation(err))
	})
}

func TestMigrator_DownAndUp(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	mg, err := schema.NewMigrator(ctx, db)
	require.NoError(t, err)
	defer func() { _ = mg.Close() }()

	v, dirty, err := mg.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(0), v)
	assert.False(t, dirty)

	require.NoError(t, mg.Up())
	v, _, err = mg.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)

	require.NoError(t, mg.Down())
	var n int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'units'`).Scan(&n))
	assert.Equal(t, 0, n)
}
