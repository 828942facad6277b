package repository

import "errors"

// ErrConflict is returned when a write violates an integrity constraint
// other than the identity it upserts on, e.g. a unit whose major is unknown.
var ErrConflict = errors.New("catalog constraint conflict")
