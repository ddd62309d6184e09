package storage

import (
	"context"
	"sync"

	"evoting/pkg/platform/sentinel"
)

// InMemorySlotStore keeps credentials for the lifetime of the process. Used by
// tests and by consoles that should forget their operator on restart.
type InMemorySlotStore struct {
	mu    sync.RWMutex
	slots map[string]string
}

func NewInMemorySlotStore() *InMemorySlotStore {
	return &InMemorySlotStore{slots: make(map[string]string)}
}

func (s *InMemorySlotStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.slots[key]; ok {
		return v, nil
	}
	return "", sentinel.ErrNotFound
}

func (s *InMemorySlotStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = value
	return nil
}

func (s *InMemorySlotStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, key)
	return nil
}
