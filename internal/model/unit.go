package model

import "fmt"

// Category classifies why a unit belongs in the catalog.
type Category string

const (
	CategoryMajor    Category = "major"
	CategoryCore     Category = "core"
	CategoryElective Category = "elective"
)

// Categories lists every valid category in reconciliation order.
var Categories = []Category{CategoryMajor, CategoryCore, CategoryElective}

// Valid reports whether c is one of the three known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryMajor, CategoryCore, CategoryElective:
		return true
	}
	return false
}

// Prunable reports whether reconciliation may delete stale rows of this
// category. Elective listings are never treated as complete.
func (c Category) Prunable() bool {
	return c == CategoryMajor || c == CategoryCore
}

// ParseCategory converts a raw string into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Unit represents a course row. MajorTitle is nil for core and elective units.
type Unit struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Category   Category `json:"category"`
	MajorTitle *string  `json:"major_title"`
}

// Scope bounds which rows a single upsert/prune step may touch.
type Scope struct {
	MajorTitle *string
	Category   Category
}

// MajorScope returns the scope of units required by the given major.
func MajorScope(title string) Scope {
	return Scope{MajorTitle: &title, Category: CategoryMajor}
}

// CoreScope returns the scope of major-independent core units.
func CoreScope() Scope {
	return Scope{Category: CategoryCore}
}

// ElectiveScope returns the scope of major-independent elective units.
func ElectiveScope() Scope {
	return Scope{Category: CategoryElective}
}

func (s Scope) String() string {
	if s.MajorTitle == nil {
		return string(s.Category)
	}
	return string(s.Category) + ":" + *s.MajorTitle
}

// UnitFilter holds the optional criteria of a unit lookup. A nil field
// means the criterion is not applied.
type UnitFilter struct {
	Major        *string
	Category     *Category
	NameContains *string
}

// Fingerprint renders the filter as a stable string, used for cache keys.
func (f UnitFilter) Fingerprint() string {
	part := func(p *string) string {
		if p == nil {
			return "-"
		}
		return fmt.Sprintf("%q", *p)
	}
	var cat *string
	if f.Category != nil {
		s := string(*f.Category)
		cat = &s
	}
	return "m=" + part(f.Major) + ";c=" + part(cat) + ";n=" + part(f.NameContains)
}

// UnitQuery is the query-string form of a unit lookup.
type UnitQuery struct {
	Major    string `form:"major" binding:"omitempty,max=200"`
	Category string `form:"category" binding:"omitempty,oneof=major core elective"`
	Name     string `form:"name" binding:"omitempty,max=100"`
}

// Filter converts the query into a UnitFilter; empty parameters are omitted.
func (q UnitQuery) Filter() UnitFilter {
	var f UnitFilter
	if q.Major != "" {
		major := q.Major
		f.Major = &major
	}
	if q.Category != "" {
		c := Category(q.Category)
		f.Category = &c
	}
	if q.Name != "" {
		name := q.Name
		f.NameContains = &name
	}
	return f
}
