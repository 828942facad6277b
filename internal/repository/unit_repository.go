package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stemsi/handbook/internal/database"
	"github.com/stemsi/handbook/internal/model"
	"github.com/stemsi/handbook/internal/query"
)

const (
	colName       = "name"
	colCategory   = "category"
	colMajorTitle = "major_title"

	selectUnitNames = `SELECT name FROM units`
	selectUnits     = `SELECT id, name, category, major_title FROM units`
	deleteUnits     = `DELETE FROM units`
)

func insertUnitSQL(d database.Dialect) string {
	return `INSERT INTO units (name, category, major_title) VALUES (` +
		d.Placeholder(1) + `, ` + d.Placeholder(2) + `, ` + d.Placeholder(3) +
		`) ON CONFLICT DO NOTHING`
}

// UnitRepository handles unit data access.
type UnitRepository struct {
	q       database.Querier
	dialect database.Dialect
}

// NewUnitRepository creates a new UnitRepository.
func NewUnitRepository(db *database.DB) *UnitRepository {
	return &UnitRepository{q: db, dialect: db.Dialect}
}

// WithTx returns a copy bound to tx.
func (r *UnitRepository) WithTx(tx *sql.Tx) *UnitRepository {
	return &UnitRepository{q: tx, dialect: r.dialect}
}

// Upsert inserts (name, scope) if that identity is absent and reports
// whether a row was created.
func (r *UnitRepository) Upsert(ctx context.Context, scope model.Scope, name string) (bool, error) {
	res, err := r.q.ExecContext(ctx, insertUnitSQL(r.dialect), name, string(scope.Category), scope.MajorTitle)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return false, nil
		}
		if database.IsConstraintViolation(err) {
			return false, fmt.Errorf("%w: unit %q in %s: %v", ErrConflict, name, scope, err)
		}
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Prune deletes every unit in scope whose name is not in keep and returns
// the number of rows removed. An empty keep is refused with zero deleted:
// it would otherwise wipe the whole scope.
func (r *UnitRepository) Prune(ctx context.Context, scope model.Scope, keep []string) (int64, error) {
	if len(keep) == 0 {
		return 0, nil
	}
	q, args := query.New(r.dialect, deleteUnits).
		Eq(colCategory, string(scope.Category)).
		EqOrNull(colMajorTitle, scope.MajorTitle).
		NotIn(colName, keep).
		Build()

	res, err := r.q.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Find returns the names of units matching every supplied criterion,
// ordered by name. Without criteria every unit is returned.
func (r *UnitRepository) Find(ctx context.Context, f model.UnitFilter) ([]string, error) {
	b := query.New(r.dialect, selectUnitNames)
	if f.Major != nil {
		b.Eq(colMajorTitle, *f.Major)
	}
	if f.Category != nil {
		b.Eq(colCategory, string(*f.Category))
	}
	if f.NameContains != nil {
		b.ContainsFold(colName, *f.NameContains)
	}
	q, args := b.OrderBy("name", "id").Build()
	return r.names(ctx, q, args)
}

// ListByMajor returns the names of units attached to the given major.
func (r *UnitRepository) ListByMajor(ctx context.Context, title string) ([]string, error) {
	return r.Find(ctx, model.UnitFilter{Major: &title})
}

// ListByScope returns the names stored for one (major_title, category) scope.
func (r *UnitRepository) ListByScope(ctx context.Context, scope model.Scope) ([]string, error) {
	q, args := query.New(r.dialect, selectUnitNames).
		Eq(colCategory, string(scope.Category)).
		EqOrNull(colMajorTitle, scope.MajorTitle).
		OrderBy("name").
		Build()
	return r.names(ctx, q, args)
}

// FindByName returns every row with exactly this name. A name shared by
// several majors, or by a major and the core list, yields one row each.
func (r *UnitRepository) FindByName(ctx context.Context, name string) ([]model.Unit, error) {
	q, args := query.New(r.dialect, selectUnits).
		Eq(colName, name).
		OrderBy("category", "major_title", "id").
		Build()
	return r.units(ctx, q, args)
}

// All returns every unit row in insertion order.
func (r *UnitRepository) All(ctx context.Context) ([]model.Unit, error) {
	q, args := query.New(r.dialect, selectUnits).OrderBy("id").Build()
	return r.units(ctx, q, args)
}

func (r *UnitRepository) names(ctx context.Context, q string, args []any) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (r *UnitRepository) units(ctx context.Context, q string, args []any) ([]model.Unit, error) {
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	units := []model.Unit{}
	for rows.Next() {
		var u model.Unit
		if err := rows.Scan(&u.ID, &u.Name, &u.Category, &u.MajorTitle); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}
