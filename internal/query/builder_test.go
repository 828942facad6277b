package query

import (
	"testing"

	"github.com/stemsi/handbook/internal/database"
	"github.com/stretchr/testify/assert"
)

func strp(s string) *string { return &s }

func TestBuilder_NoPredicates(t *testing.T) {
	q, args := New(database.DialectPostgres, "SELECT name FROM units").Build()
	assert.Equal(t, "SELECT name FROM units", q)
	assert.Empty(t, args)
}

func TestBuilder_PostgresNumbering(t *testing.T) {
	q, args := New(database.DialectPostgres, "SELECT name FROM units").
		Eq("major_title", "CS").
		Eq("category", "major").
		ContainsFold("name", "raph").
		OrderBy("name").
		Build()

	assert.Equal(t,
		`SELECT name FROM units WHERE major_title = $1 AND category = $2 AND LOWER(name) LIKE LOWER($3) ESCAPE '\' ORDER BY name`,
		q)
	assert.Equal(t, []any{"CS", "major", "%raph%"}, args)
}

func TestBuilder_SQLitePlaceholders(t *testing.T) {
	q, args := New(database.DialectSQLite, "DELETE FROM units").
		Eq("category", "core").
		IsNull("major_title").
		NotIn("name", []string{"A", "B"}).
		Build()

	assert.Equal(t, "DELETE FROM units WHERE category = ? AND major_title IS NULL AND name NOT IN (?, ?)", q)
	assert.Equal(t, []any{"core", "A", "B"}, args)
}

func TestBuilder_EqOrNull(t *testing.T) {
	q, args := New(database.DialectPostgres, "DELETE FROM units").
		EqOrNull("major_title", nil).
		NotIn("name", []string{"x"}).
		Build()
	assert.Equal(t, "DELETE FROM units WHERE major_title IS NULL AND name NOT IN ($1)", q)
	assert.Equal(t, []any{"x"}, args)

	q, args = New(database.DialectPostgres, "DELETE FROM units").
		EqOrNull("major_title", strp("CS")).
		NotIn("name", []string{"x", "y"}).
		Build()
	assert.Equal(t, "DELETE FROM units WHERE major_title = $1 AND name NOT IN ($2, $3)", q)
	assert.Equal(t, []any{"CS", "x", "y"}, args)
}

func TestBuilder_NotInEmpty(t *testing.T) {
	q, args := New(database.DialectSQLite, "DELETE FROM units").
		Eq("category", "core").
		NotIn("name", nil).
		Build()
	assert.Equal(t, "DELETE FROM units WHERE category = ?", q)
	assert.Equal(t, []any{"core"}, args)
}

func TestBuilder_ValuesNeverInText(t *testing.T) {
	hostile := []string{"O'Brien", "x'); DROP TABLE units; --", `back\slash`}
	q, args := New(database.DialectPostgres, "DELETE FROM units").
		NotIn("name", hostile).
		ContainsFold("name", "50%_off").
		Build()

	for _, v := range hostile {
		assert.NotContains(t, q, v)
	}
	assert.NotContains(t, q, "50%")
	assert.Equal(t, []any{"O'Brien", "x'); DROP TABLE units; --", `back\slash`, `%50\%\_off%`}, args)
}

func TestEscapeLike(t *testing.T) {
	tests := map[string]string{
		"plain":   "plain",
		"100%":    `100\%`,
		"a_b":     `a\_b`,
		`c:\path`: `c:\\path`,
	}
	for in, want := range tests {
		assert.Equal(t, want, EscapeLike(in), in)
	}
}
