package kv

import (
	"context"
	"sync"
)

// MemoryStore keeps values in process memory. State is lost on restart;
// it backs tests and single-process development runs.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	// failNext makes the next Apply fail; used to exercise rollback paths
	failNext error
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get returns a copy of the stored value
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

// Apply writes every op under one lock
func (s *MemoryStore) Apply(_ context.Context, ops ...Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failNext; err != nil {
		s.failNext = nil
		return err
	}

	for _, op := range ops {
		if op.Delete {
			delete(s.data, op.Key)
			continue
		}
		s.data[op.Key] = append([]byte(nil), op.Value...)
	}
	return nil
}

// FailNextApply makes the next Apply return err without writing anything
func (s *MemoryStore) FailNextApply(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

// Ping always succeeds
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
