// Package memory provides in-memory implementations of outbound ports.
package memory

import (
	"context"
	"sync"
)

// Storage implements session.Storage with an in-memory map.
// Thread-safe for concurrent access. Nothing survives the process, so it
// suits tests and one-shot invocations only.
type Storage struct {
	items map[string]string
	mu    sync.RWMutex
}

// NewStorage creates an empty in-memory storage.
func NewStorage() *Storage {
	return &Storage{items: make(map[string]string)}
}

// GetItem returns the value stored under key.
func (s *Storage) GetItem(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok, nil
}

// SetItem stores value under key, replacing any previous value.
func (s *Storage) SetItem(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (s *Storage) RemoveItem(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// Len returns the number of stored items.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
