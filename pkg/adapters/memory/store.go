package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/strata/pkg/ports"
)

// Store implements ports.FixedStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]ports.Record
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]ports.Record),
	}
}

// Save persists the record in memory.
func (s *Store) Save(ctx context.Context, rec ports.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[rec.Key] = rec
	return nil
}

// Load retrieves the record from memory.
func (s *Store) Load(ctx context.Context, key string) (ports.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[key]
	if !ok {
		return ports.Record{}, ports.ErrRecordNotFound
	}
	return rec, nil
}

// Delete removes the record.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns stored keys in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.data)), nil
}
