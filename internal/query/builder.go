// Package query builds parameterized WHERE clauses. Callers supply column
// names from code constants; every value is bound, never written into the
// statement text.
package query

import (
	"strings"

	"github.com/stemsi/handbook/internal/database"
)

// Builder accumulates predicates over a base statement such as
// "SELECT name FROM units" or "DELETE FROM units". Predicates are joined
// with AND. The zero value is not usable; call New.
type Builder struct {
	dialect database.Dialect
	base    string
	preds   []string
	args    []any
	order   []string
}

// New starts a builder over base for the given dialect.
func New(dialect database.Dialect, base string) *Builder {
	return &Builder{dialect: dialect, base: base}
}

func (b *Builder) bind(v any) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

// Eq adds "col = ?".
func (b *Builder) Eq(col string, v any) *Builder {
	b.preds = append(b.preds, col+" = "+b.bind(v))
	return b
}

// IsNull adds "col IS NULL".
func (b *Builder) IsNull(col string) *Builder {
	b.preds = append(b.preds, col+" IS NULL")
	return b
}

// EqOrNull adds "col = ?" for a non-nil v and "col IS NULL" otherwise.
// SQL equality never matches NULL, so a nil scope needs its own predicate.
func (b *Builder) EqOrNull(col string, v *string) *Builder {
	if v == nil {
		return b.IsNull(col)
	}
	return b.Eq(col, *v)
}

// ContainsFold adds a case-insensitive substring match. LIKE wildcards in
// substr match literally.
func (b *Builder) ContainsFold(col, substr string) *Builder {
	p := b.bind("%" + EscapeLike(substr) + "%")
	b.preds = append(b.preds, "LOWER("+col+") LIKE LOWER("+p+`) ESCAPE '\'`)
	return b
}

// NotIn adds "col NOT IN (?, ?, ...)". An empty vals adds nothing, since
// "NOT IN ()" is not valid SQL and would exclude nothing anyway.
func (b *Builder) NotIn(col string, vals []string) *Builder {
	if len(vals) == 0 {
		return b
	}
	ph := make([]string, len(vals))
	for i, v := range vals {
		ph[i] = b.bind(v)
	}
	b.preds = append(b.preds, col+" NOT IN ("+strings.Join(ph, ", ")+")")
	return b
}

// OrderBy appends ORDER BY terms, e.g. "name", "id DESC".
func (b *Builder) OrderBy(terms ...string) *Builder {
	b.order = append(b.order, terms...)
	return b
}

// Build renders the statement and its arguments in placeholder order.
func (b *Builder) Build() (string, []any) {
	var sb strings.Builder
	sb.WriteString(b.base)
	if len(b.preds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.preds, " AND "))
	}
	if len(b.order) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.order, ", "))
	}
	return sb.String(), b.args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE metacharacters using backslash.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
