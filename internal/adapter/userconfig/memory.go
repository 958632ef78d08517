package userconfig

import (
	"context"
	"sync"
)

// MemoryStore keeps user locations in process memory. Contents are lost on
// restart; use the duckdb store for persistence.
type MemoryStore struct {
	mu        sync.RWMutex
	locations map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{locations: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, ok := s.locations[userID]
	return loc, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, userID, location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[userID] = location
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locations, userID)
	return nil
}
