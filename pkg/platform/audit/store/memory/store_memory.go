package memory

import (
	"context"
	"sync"

	"riskflow/pkg/domain"
	audit "riskflow/pkg/platform/audit"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[domain.CaseID][]audit.Entry
	seen    map[domain.ExecutionID]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[domain.CaseID][]audit.Entry),
		seen:    make(map[domain.ExecutionID]struct{}),
	}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[domain.CaseID][]audit.Entry)
	s.seen = make(map[domain.ExecutionID]struct{})
}

// Append records entry once per execution id; repeats are ignored.
func (s *InMemoryStore) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[entry.ExecutionID]; dup {
		return nil
	}
	s.seen[entry.ExecutionID] = struct{}{}
	s.entries[entry.CaseID] = append(s.entries[entry.CaseID], entry)
	return nil
}

func (s *InMemoryStore) ListByCase(_ context.Context, caseID domain.CaseID) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Entry{}, s.entries[caseID]...), nil
}

// ListAll returns every entry across all cases.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []audit.Entry
	for _, caseEntries := range s.entries {
		all = append(all, caseEntries...)
	}
	return all, nil
}
