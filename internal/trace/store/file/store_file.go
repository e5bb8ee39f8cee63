// Package file persists traces as one JSON document per execution id on a
// local filesystem. Payloads are written to a temp file and published with a
// hard link, so readers never see a partial file and the first writer of a
// key wins.
package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"riskflow/internal/trace"
	"riskflow/pkg/domain"
	"riskflow/pkg/platform/sentinel"
)

// Store writes traces under <root>/<namespace>/<execution-id>.json.
type Store struct {
	root string
	perm fs.FileMode
}

// Option configures a Store.
type Option func(*Store)

// WithFileMode sets the permission bits of written trace files.
func WithFileMode(perm fs.FileMode) Option {
	return func(s *Store) { s.perm = perm }
}

// New creates a file store rooted at dir, creating both namespace
// directories up front.
func New(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.New("trace directory is required")
	}
	s := &Store{root: dir, perm: 0o640}
	for _, opt := range opts {
		opt(s)
	}
	for _, ns := range []trace.Namespace{trace.NamespaceWorkflows, trace.NamespaceAgents} {
		if err := os.MkdirAll(filepath.Join(dir, string(ns)), 0o750); err != nil {
			return nil, fmt.Errorf("create trace directory: %w", err)
		}
	}
	return s, nil
}

func (s *Store) path(ns trace.Namespace, id domain.ExecutionID) string {
	return filepath.Join(s.root, string(ns), id.String()+".json")
}

// Write atomically places payload at the key's final path. A key that already
// holds the same bytes is a success; different bytes are a conflict, also
// when two writers race for the same key.
func (s *Store) Write(ctx context.Context, ns trace.Namespace, id domain.ExecutionID, payload []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !ns.Valid() {
		return "", fmt.Errorf("write trace: unknown namespace %q", ns)
	}
	final := s.path(ns, id)

	if existing, err := os.ReadFile(final); err == nil {
		return final, compare(ns, id, existing, payload)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat trace: %w", err)
	}

	// Temp file lives in the destination directory so the link stays on one
	// filesystem.
	tmp, err := os.CreateTemp(filepath.Dir(final), "."+id.String()+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp trace: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write temp trace: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("sync temp trace: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp trace: %w", err)
	}
	if err := os.Chmod(tmpName, s.perm); err != nil {
		return "", fmt.Errorf("chmod temp trace: %w", err)
	}
	// Link fails with EEXIST instead of replacing, unlike rename.
	if err := os.Link(tmpName, final); err != nil {
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("publish trace: %w", err)
		}
		existing, rerr := os.ReadFile(final)
		if rerr != nil {
			return "", fmt.Errorf("compare existing trace: %w", rerr)
		}
		return final, compare(ns, id, existing, payload)
	}
	return final, nil
}

func compare(ns trace.Namespace, id domain.ExecutionID, existing, payload []byte) error {
	if bytes.Equal(existing, payload) {
		return nil
	}
	return fmt.Errorf("trace %s/%s: %w", ns, id, sentinel.ErrConflict)
}

// Read returns the stored payload for a key.
func (s *Store) Read(ctx context.Context, ns trace.Namespace, id domain.ExecutionID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ns.Valid() {
		return nil, fmt.Errorf("read trace: unknown namespace %q: %w", ns, sentinel.ErrNotFound)
	}
	payload, err := os.ReadFile(s.path(ns, id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("trace %s/%s: %w", ns, id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("read trace: %w", err)
	}
	return payload, nil
}
