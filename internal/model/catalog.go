package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSnapshot is the root of every malformed-snapshot error.
var ErrInvalidSnapshot = errors.New("invalid catalog snapshot")

// ValidationError describes the first malformed field found in a snapshot.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrInvalidSnapshot) hold for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidSnapshot
}

// CatalogSnapshot is one complete scrape of the handbook.
type CatalogSnapshot struct {
	Majors    []MajorUnits `json:"majors"`
	Cores     []string     `json:"cores"`
	Electives []string     `json:"electives"`
}

// Normalize returns a copy with whitespace trimmed, repeated majors merged
// in first-seen order and duplicate names removed from every list.
// Blank entries are kept so that Validate can report them.
func (s CatalogSnapshot) Normalize() CatalogSnapshot {
	out := CatalogSnapshot{
		Cores:     dedupe(s.Cores),
		Electives: dedupe(s.Electives),
	}

	index := make(map[string]int, len(s.Majors))
	for _, m := range s.Majors {
		title := strings.TrimSpace(m.Title)
		if i, ok := index[title]; ok {
			out.Majors[i].Units = append(out.Majors[i].Units, m.Units...)
			continue
		}
		index[title] = len(out.Majors)
		out.Majors = append(out.Majors, MajorUnits{
			Title: title,
			Units: append([]string(nil), m.Units...),
		})
	}
	for i := range out.Majors {
		out.Majors[i].Units = dedupe(out.Majors[i].Units)
	}
	return out
}

// Validate rejects snapshots that must never reach the store.
func (s CatalogSnapshot) Validate() error {
	for i, m := range s.Majors {
		if strings.TrimSpace(m.Title) == "" {
			return &ValidationError{Field: fmt.Sprintf("majors[%d].title", i), Message: "must not be empty"}
		}
		if err := validateNames(fmt.Sprintf("majors[%d].units", i), m.Units); err != nil {
			return err
		}
	}
	if err := validateNames("cores", s.Cores); err != nil {
		return err
	}
	return validateNames("electives", s.Electives)
}

// UnitCount returns the number of unit names across all lists.
func (s CatalogSnapshot) UnitCount() int {
	n := len(s.Cores) + len(s.Electives)
	for _, m := range s.Majors {
		n += len(m.Units)
	}
	return n
}

func validateNames(field string, names []string) error {
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Field: fmt.Sprintf("%s[%d]", field, i), Message: "unit name must not be empty"}
		}
	}
	return nil
}

func dedupe(names []string) []string {
	if names == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// MajorRequest is one major entry of a SnapshotRequest.
type MajorRequest struct {
	Title string   `json:"title" binding:"required,max=200"`
	Units []string `json:"units" binding:"dive,required,max=100"`
}

// SnapshotRequest is the JSON payload accepted by the admin snapshot endpoint.
type SnapshotRequest struct {
	Majors    []MajorRequest `json:"majors" binding:"dive"`
	Cores     []string       `json:"cores" binding:"dive,required,max=100"`
	Electives []string       `json:"electives" binding:"dive,required,max=100"`
}

// Snapshot converts the request into a CatalogSnapshot.
func (r SnapshotRequest) Snapshot() CatalogSnapshot {
	s := CatalogSnapshot{Cores: r.Cores, Electives: r.Electives}
	for _, m := range r.Majors {
		s.Majors = append(s.Majors, MajorUnits{Title: m.Title, Units: m.Units})
	}
	return s
}
