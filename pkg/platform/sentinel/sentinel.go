package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so the integrity engine can tell a dangling reference apart from a
// failed read.
//
// - ErrNotFound: record does not exist in store
// - ErrConflict: write collided with an existing record
// - ErrInvalidState: record in wrong state for requested operation
// - ErrUnavailable: store or downstream temporarily unavailable
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
