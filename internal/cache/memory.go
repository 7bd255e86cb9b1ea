package cache

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store used when Redis is disabled.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	s.entries[key] = append([]byte(nil), value...)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string][]byte)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

// Len reports the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
