package storage

import (
	"fmt"

	"counsel/internal/integrity/models"
	"counsel/pkg/platform/sentinel"
)

// ErrNotFound keeps storage-specific misses consistent across in-memory and
// Postgres implementations.
var ErrNotFound = sentinel.ErrNotFound

// NotFound wraps ErrNotFound with the record kind and id.
func NotFound(t models.EntityType, id string) error {
	return fmt.Errorf("%s %s: %w", t, id, ErrNotFound)
}
