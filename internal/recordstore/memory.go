package recordstore

import (
	"context"
	"slices"
	"sync"

	"kycdesk/pkg/platform/sentinel"
)

// InMemoryStore keeps records in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
	ids     []string
}

// NewInMemory returns an empty in-memory store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[string][]byte)}
}

func (s *InMemoryStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = slices.Clone(value)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return slices.Clone(v), nil
}

func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

func (s *InMemoryStore) AppendSubmissionID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, id)
	return nil
}

func (s *InMemoryStore) ListSubmissionIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.ids...), nil
}
