package memory

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"riskflow/internal/trace"
	"riskflow/pkg/domain"
	"riskflow/pkg/platform/sentinel"
)

type key struct {
	ns trace.Namespace
	id domain.ExecutionID
}

// InMemoryStore keeps traces in process memory. Used by tests and the demo.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[key][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[key][]byte)}
}

func (s *InMemoryStore) Write(_ context.Context, ns trace.Namespace, id domain.ExecutionID, payload []byte) (string, error) {
	k := key{ns: ns, id: id}
	loc := location(ns, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[k]; ok {
		if bytes.Equal(existing, payload) {
			return loc, nil
		}
		return "", fmt.Errorf("trace %s/%s: %w", ns, id, sentinel.ErrConflict)
	}
	s.records[k] = bytes.Clone(payload)
	return loc, nil
}

func (s *InMemoryStore) Read(_ context.Context, ns trace.Namespace, id domain.ExecutionID) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.records[key{ns: ns, id: id}]
	if !ok {
		return nil, fmt.Errorf("trace %s/%s: %w", ns, id, sentinel.ErrNotFound)
	}
	return bytes.Clone(payload), nil
}

// Count returns the number of records in a namespace.
func (s *InMemoryStore) Count(ns trace.Namespace) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for k := range s.records {
		if k.ns == ns {
			n++
		}
	}
	return n
}

// Clear drops all records.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[key][]byte)
}

func location(ns trace.Namespace, id domain.ExecutionID) string {
	return fmt.Sprintf("memory://%s/%s", ns, id)
}
