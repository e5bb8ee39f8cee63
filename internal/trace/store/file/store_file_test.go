package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"riskflow/internal/trace"
	"riskflow/internal/trace/store/storetest"
	"riskflow/pkg/domain"
)

type FileStoreSuite struct {
	storetest.Suite
	dir string
}

func TestFileStoreSuite(t *testing.T) {
	suite.Run(t, new(FileStoreSuite))
}

func (s *FileStoreSuite) SetupTest() {
	s.dir = s.T().TempDir()
	store, err := New(s.dir)
	s.Require().NoError(err)
	s.Store = store
}

func (s *FileStoreSuite) TestNewRequiresDirectory() {
	_, err := New("")
	s.Error(err)
}

func (s *FileStoreSuite) TestLayoutAndNoTempLeftovers() {
	id := domain.NewExecutionID()
	loc, err := s.Store.Write(context.Background(), trace.NamespaceWorkflows, id, []byte(`{}`))
	s.Require().NoError(err)
	s.Equal(filepath.Join(s.dir, "workflows", id.String()+".json"), loc)

	entries, err := os.ReadDir(filepath.Join(s.dir, "workflows"))
	s.Require().NoError(err)
	s.Require().Len(entries, 1, "temp files must not remain after publish")
	s.Equal(id.String()+".json", entries[0].Name())
}

func (s *FileStoreSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Store.Write(ctx, trace.NamespaceAgents, domain.NewExecutionID(), []byte(`{}`))
	s.ErrorIs(err, context.Canceled)
}

func (s *FileStoreSuite) TestUnknownNamespace() {
	_, err := s.Store.Write(context.Background(), trace.Namespace("../etc"), domain.NewExecutionID(), []byte(`{}`))
	s.Error(err)
}
