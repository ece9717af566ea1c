package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store. Values are kept JSON-encoded so callers
// never share mutable state with the cache.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[string]memoryEntry
	counters map[string]int64
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string]memoryEntry),
		counters: make(map[string]int64),
		now:      time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string, dest interface{}) error {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return ErrMiss
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return ErrMiss
	}
	if err := json.Unmarshal(entry.data, dest); err != nil {
		return fmt.Errorf("failed to decode cached value %q: %w", key, err)
	}
	return nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value for %q: %w", key, err)
	}
	entry := memoryEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Version(_ context.Context, counter string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters[counter], nil
}

func (s *MemoryStore) Bump(_ context.Context, counter string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[counter]++
	// entries for older versions can never be read again
	s.entries = make(map[string]memoryEntry)
	return s.counters[counter], nil
}

func (s *MemoryStore) Close() error {
	return nil
}
