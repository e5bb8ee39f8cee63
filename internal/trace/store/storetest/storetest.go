// Package storetest holds the behavioural contract every trace.Store
// backend must satisfy. Backend tests embed Suite and supply a store.
package storetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/stretchr/testify/suite"

	"riskflow/internal/trace"
	"riskflow/pkg/domain"
	"riskflow/pkg/platform/sentinel"
)

// Suite exercises write-once, idempotent, namespaced trace storage.
type Suite struct {
	suite.Suite
	Store trace.Store
}

func (s *Suite) TestWriteThenRead() {
	ctx := context.Background()
	id := domain.NewExecutionID()
	payload := []byte(`{"execution_id":"` + id.String() + `","status":"COMPLETED"}`)

	loc, err := s.Store.Write(ctx, trace.NamespaceWorkflows, id, payload)
	s.Require().NoError(err)
	s.NotEmpty(loc)

	got, err := s.Store.Read(ctx, trace.NamespaceWorkflows, id)
	s.Require().NoError(err)
	s.Equal(payload, got)
}

func (s *Suite) TestIdenticalWriteIsIdempotent() {
	ctx := context.Background()
	id := domain.NewExecutionID()
	payload := []byte(`{"a":1}`)

	first, err := s.Store.Write(ctx, trace.NamespaceAgents, id, payload)
	s.Require().NoError(err)
	second, err := s.Store.Write(ctx, trace.NamespaceAgents, id, payload)
	s.Require().NoError(err)
	s.Equal(first, second)
}

func (s *Suite) TestDifferentPayloadConflicts() {
	ctx := context.Background()
	id := domain.NewExecutionID()

	_, err := s.Store.Write(ctx, trace.NamespaceAgents, id, []byte(`{"a":1}`))
	s.Require().NoError(err)
	_, err = s.Store.Write(ctx, trace.NamespaceAgents, id, []byte(`{"a":2}`))
	s.ErrorIs(err, sentinel.ErrConflict)

	got, err := s.Store.Read(ctx, trace.NamespaceAgents, id)
	s.Require().NoError(err)
	s.Equal([]byte(`{"a":1}`), got, "original record must survive")
}

func (s *Suite) TestRacingWritersOfOneKeyConflict() {
	ctx := context.Background()
	id := domain.NewExecutionID()
	const writers = 16

	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := range writers {
		wg.Go(func() {
			_, errs[i] = s.Store.Write(ctx, trace.NamespaceWorkflows, id, fmt.Appendf(nil, `{"writer":%d}`, i))
		})
	}
	wg.Wait()

	winner := -1
	for i, err := range errs {
		if err == nil {
			s.Require().Equal(-1, winner, "only one writer may publish a key")
			winner = i
			continue
		}
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	}
	s.Require().NotEqual(-1, winner)

	got, err := s.Store.Read(ctx, trace.NamespaceWorkflows, id)
	s.Require().NoError(err)
	s.Equal(fmt.Appendf(nil, `{"writer":%d}`, winner), got)
}

func (s *Suite) TestNamespacesAreIndependent() {
	ctx := context.Background()
	id := domain.NewExecutionID()

	_, err := s.Store.Write(ctx, trace.NamespaceWorkflows, id, []byte(`{"w":1}`))
	s.Require().NoError(err)

	_, err = s.Store.Read(ctx, trace.NamespaceAgents, id)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.Store.Write(ctx, trace.NamespaceAgents, id, []byte(`{"a":1}`))
	s.NoError(err)
}

func (s *Suite) TestReadMissing() {
	_, err := s.Store.Read(context.Background(), trace.NamespaceWorkflows, domain.NewExecutionID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *Suite) TestConcurrentWritersToDistinctKeys() {
	ctx := context.Background()
	const writers = 32
	ids := make([]domain.ExecutionID, writers)
	for i := range ids {
		ids[i] = domain.NewExecutionID()
	}

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Store.Write(ctx, trace.NamespaceAgents, id, fmt.Appendf(nil, `{"n":%d}`, i))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	for i, id := range ids {
		got, err := s.Store.Read(ctx, trace.NamespaceAgents, id)
		s.Require().NoError(err)
		s.Equal(fmt.Appendf(nil, `{"n":%d}`, i), got)
	}
}
