package memory

import (
	"context"
	"sync"

	audit "counsel/pkg/platform/audit"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]audit.Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string][]audit.Entry)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string][]audit.Entry)
}

func (s *InMemoryStore) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.GuildID] = append(s.entries[entry.GuildID], entry)
	return nil
}

func (s *InMemoryStore) ListByGuild(_ context.Context, guildID string) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Entry{}, s.entries[guildID]...), nil
}

// Len counts entries across all guilds.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.entries {
		n += len(e)
	}
	return n
}
