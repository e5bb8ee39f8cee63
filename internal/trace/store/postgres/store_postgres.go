package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"riskflow/internal/trace"
	"riskflow/pkg/domain"
	"riskflow/pkg/platform/sentinel"
)

// Schema creates the trace table. Both namespaces share it, keyed by
// (namespace, execution_id).
const Schema = `
CREATE TABLE IF NOT EXISTS execution_traces (
	namespace    TEXT        NOT NULL,
	execution_id UUID        NOT NULL,
	payload      BYTEA       NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, execution_id)
)`

// Store persists traces in PostgreSQL. Each write is a single INSERT, so a
// reader sees either the whole record or nothing.
type Store struct {
	pool  *pgxpool.Pool
	clock func() time.Time
}

// New creates a Store backed by the given connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, clock: time.Now}
}

// EnsureSchema creates the trace table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure trace schema: %w", err)
	}
	return nil
}

// Write inserts the payload unless the key exists. ON CONFLICT DO NOTHING
// keeps concurrent identical writes race-free.
func (s *Store) Write(ctx context.Context, ns trace.Namespace, id domain.ExecutionID, payload []byte) (string, error) {
	loc := fmt.Sprintf("postgres://execution_traces/%s/%s", ns, id)
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO execution_traces (namespace, execution_id, payload, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (namespace, execution_id) DO NOTHING`,
		string(ns), uuid.UUID(id), payload, s.clock())
	if err != nil {
		return "", fmt.Errorf("insert trace: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return loc, nil
	}

	existing, err := s.Read(ctx, ns, id)
	if err != nil {
		return "", fmt.Errorf("compare existing trace: %w", err)
	}
	if !bytes.Equal(existing, payload) {
		return "", fmt.Errorf("trace %s/%s: %w", ns, id, sentinel.ErrConflict)
	}
	return loc, nil
}

// Read returns the stored payload for a key.
func (s *Store) Read(ctx context.Context, ns trace.Namespace, id domain.ExecutionID) ([]byte, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM execution_traces WHERE namespace = $1 AND execution_id = $2`,
		string(ns), uuid.UUID(id)).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("trace %s/%s: %w", ns, id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("select trace: %w", err)
	}
	return payload, nil
}
