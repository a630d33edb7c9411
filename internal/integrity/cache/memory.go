package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"counsel/internal/integrity/models"
)

// pruneThreshold is the size at which Set sweeps expired entries.
const pruneThreshold = 10000

type entry struct {
	issues   []models.Issue
	storedAt time.Time
}

// Memory is an in-process TTL cache guarded by a RWMutex.
type Memory struct {
	mu      sync.RWMutex
	entries map[Key]entry
	ttl     time.Duration
	now     func() time.Time
}

type MemoryOption func(*Memory)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

// NewMemory returns an empty cache. A non-positive ttl selects DefaultTTL.
func NewMemory(ttl time.Duration, opts ...MemoryOption) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Memory{
		entries: make(map[Key]entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Get(_ context.Context, key Key) ([]models.Issue, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cached, ok := m.entries[key]
	if !ok || m.now().Sub(cached.storedAt) >= m.ttl {
		return nil, false, nil
	}
	return slices.Clone(cached.issues), true, nil
}

func (m *Memory) Set(_ context.Context, key Key, issues []models.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if len(m.entries) >= pruneThreshold {
		m.pruneLocked(now)
	}
	m.entries[key] = entry{issues: slices.Clone(issues), storedAt: now}
	return nil
}

// Clear drops every entry.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[Key]entry)
	return nil
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) pruneLocked(now time.Time) {
	for k, e := range m.entries {
		if now.Sub(e.storedAt) >= m.ttl {
			delete(m.entries, k)
		}
	}
}
