// Package reconcile merges a scraped catalog snapshot into the store.
//
// One run is a single transaction: majors are upserted, every scope is
// brought in line with the snapshot, and either all of it commits or none
// of it does. Major and core scopes are pruned to the incoming list;
// electives are only ever added to, because elective listings are not
// known to be complete. An empty incoming list never prunes, since it
// usually means the scrape lost that section rather than that the
// section is really empty.
//
// Runs must be serialized by the caller (see service.SyncService).
package reconcile

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/handbook/internal/database"
	"github.com/stemsi/handbook/internal/model"
	"github.com/stemsi/handbook/internal/repository"
)

// Reasons a scope was not pruned.
const (
	SkipNotPrunable = "not_prunable"
	SkipEmptyList   = "empty_list"
)

// ScopeResult is the outcome of syncing one (major_title, category) scope.
type ScopeResult struct {
	Scope        string `json:"scope"`
	Incoming     int    `json:"incoming"`
	Inserted     int    `json:"inserted"`
	Pruned       int64  `json:"pruned"`
	PruneSkipped string `json:"prune_skipped,omitempty"`
}

// Report summarizes a committed reconciliation.
type Report struct {
	MajorsAdded int           `json:"majors_added"`
	Scopes      []ScopeResult `json:"scopes"`
	Duration    time.Duration `json:"-"`
	DurationMS  int64         `json:"duration_ms"`
}

// Inserted returns the number of unit rows created across all scopes.
func (r *Report) Inserted() int {
	n := 0
	for _, s := range r.Scopes {
		n += s.Inserted
	}
	return n
}

// Pruned returns the number of unit rows deleted across all scopes.
func (r *Report) Pruned() int64 {
	var n int64
	for _, s := range r.Scopes {
		n += s.Pruned
	}
	return n
}

// Engine applies snapshots to the catalog tables.
type Engine struct {
	db     *database.DB
	majors repository.MajorRepository
	units  *repository.UnitRepository
	log    zerolog.Logger
	now    func() time.Time
}

// NewEngine creates a new Engine.
func NewEngine(db *database.DB, majors repository.MajorRepository, units *repository.UnitRepository, log zerolog.Logger) *Engine {
	return &Engine{
		db:     db,
		majors: majors,
		units:  units,
		log:    log.With().Str("component", "reconcile").Logger(),
		now:    time.Now,
	}
}

// Reconcile merges snapshot into the store. A malformed snapshot is
// rejected with an error wrapping model.ErrInvalidSnapshot before any
// statement runs. Any storage error rolls the whole run back.
func (e *Engine) Reconcile(ctx context.Context, snapshot model.CatalogSnapshot) (*Report, error) {
	start := e.now()

	snap := snapshot.Normalize()
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	report := &Report{}
	err := database.WithTx(ctx, e.db.DB, e.log, func(ctx context.Context, tx *sql.Tx) error {
		majors := e.majors.WithTx(tx)
		units := e.units.WithTx(tx)

		for _, m := range snap.Majors {
			added, err := majors.Upsert(ctx, m.Title)
			if err != nil {
				return fmt.Errorf("upsert major %q: %w", m.Title, err)
			}
			if added {
				report.MajorsAdded++
			}
			if err := e.syncScope(ctx, units, model.MajorScope(m.Title), m.Units, report); err != nil {
				return err
			}
		}

		if err := e.syncScope(ctx, units, model.CoreScope(), snap.Cores, report); err != nil {
			return err
		}
		return e.syncScope(ctx, units, model.ElectiveScope(), snap.Electives, report)
	})
	if err != nil {
		e.log.Error().Err(err).Msg("Reconciliation rolled back")
		return nil, err
	}

	report.Duration = e.now().Sub(start)
	report.DurationMS = report.Duration.Milliseconds()

	e.log.Info().
		Int("majors", len(snap.Majors)).
		Int("majors_added", report.MajorsAdded).
		Int("units_incoming", snap.UnitCount()).
		Int("units_inserted", report.Inserted()).
		Int64("units_pruned", report.Pruned()).
		Dur("duration", report.Duration).
		Msg("Reconciliation committed")

	return report, nil
}

func (e *Engine) syncScope(ctx context.Context, units *repository.UnitRepository, scope model.Scope, names []string, report *Report) error {
	res := ScopeResult{Scope: scope.String(), Incoming: len(names)}

	for _, name := range names {
		inserted, err := units.Upsert(ctx, scope, name)
		if err != nil {
			return fmt.Errorf("sync %s: %w", scope, err)
		}
		if inserted {
			res.Inserted++
		}
	}

	switch {
	case !scope.Category.Prunable():
		res.PruneSkipped = SkipNotPrunable
	case len(names) == 0:
		res.PruneSkipped = SkipEmptyList
		e.log.Warn().
			Str("scope", res.Scope).
			Msg("Empty unit list, keeping existing rows")
	default:
		pruned, err := units.Prune(ctx, scope, names)
		if err != nil {
			return fmt.Errorf("prune %s: %w", scope, err)
		}
		res.Pruned = pruned
	}

	report.Scopes = append(report.Scopes, res)
	return nil
}
