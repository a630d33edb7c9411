package storage

import (
	"context"
	"slices"
	"sync"

	"counsel/internal/integrity/models"
)

// table is the shared in-memory row set behind every typed store. Rows are
// cloned on the way in and out so callers never alias stored state, and
// FindByGuild returns rows in insertion order.
type table[T models.Entity] struct {
	mu    sync.RWMutex
	kind  models.EntityType
	rows  map[string]T
	order []string
	clone func(T) T
}

func newTable[T models.Entity](kind models.EntityType, clone func(T) T) *table[T] {
	return &table[T]{kind: kind, rows: make(map[string]T), clone: clone}
}

func (t *table[T]) save(row T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := row.EntityID()
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = t.clone(row)
}

func (t *table[T]) update(row T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := row.EntityID()
	if _, ok := t.rows[id]; !ok {
		return NotFound(t.kind, id)
	}
	t.rows[id] = t.clone(row)
	return nil
}

func (t *table[T]) remove(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return NotFound(t.kind, id)
	}
	delete(t.rows, id)
	t.order = slices.DeleteFunc(t.order, func(s string) bool { return s == id })
	return nil
}

func (t *table[T]) byID(id string) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, NotFound(t.kind, id)
	}
	return t.clone(row), nil
}

func (t *table[T]) where(match func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []T
	for _, id := range t.order {
		if row := t.rows[id]; match(row) {
			out = append(out, t.clone(row))
		}
	}
	return out
}

func (t *table[T]) byGuild(_ context.Context, guildID string) ([]T, error) {
	return t.where(func(row T) bool { return row.Guild() == guildID }), nil
}
