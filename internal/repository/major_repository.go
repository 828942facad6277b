package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stemsi/handbook/internal/database"
	"github.com/stemsi/handbook/internal/model"
)

type MajorRepository interface {
	GetAll(ctx context.Context) ([]model.Major, error)
	Exists(ctx context.Context, title string) (bool, error)
	Upsert(ctx context.Context, title string) (bool, error)
	WithTx(tx *sql.Tx) MajorRepository
}

type majorRepository struct {
	q       database.Querier
	dialect database.Dialect
}

func NewMajorRepository(db *database.DB) MajorRepository {
	return &majorRepository{q: db, dialect: db.Dialect}
}

func (r *majorRepository) WithTx(tx *sql.Tx) MajorRepository {
	return &majorRepository{q: tx, dialect: r.dialect}
}

func (r *majorRepository) GetAll(ctx context.Context) ([]model.Major, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT title FROM majors ORDER BY title ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	majors := []model.Major{}
	for rows.Next() {
		var m model.Major
		if err := rows.Scan(&m.Title); err != nil {
			return nil, err
		}
		majors = append(majors, m)
	}
	return majors, rows.Err()
}

func (r *majorRepository) Exists(ctx context.Context, title string) (bool, error) {
	var one int
	err := r.q.QueryRowContext(ctx,
		`SELECT 1 FROM majors WHERE title = `+r.dialect.Placeholder(1), title).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Upsert inserts the title if absent. An existing row is left untouched;
// the returned bool reports whether a row was created.
func (r *majorRepository) Upsert(ctx context.Context, title string) (bool, error) {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO majors (title) VALUES (`+r.dialect.Placeholder(1)+`) ON CONFLICT DO NOTHING`, title)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return false, nil
		}
		if database.IsConstraintViolation(err) {
			return false, fmt.Errorf("%w: major %q: %v", ErrConflict, title, err)
		}
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
