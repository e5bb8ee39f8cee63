// Package fallback keeps traces durable while the primary trace backend is
// down by diverting writes to a secondary store behind a circuit breaker.
package fallback

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"riskflow/internal/trace"
	"riskflow/pkg/domain"
	"riskflow/pkg/platform/circuit"
	"riskflow/pkg/platform/sentinel"
)

// Store writes to primary until the breaker opens, then to secondary. While
// open, one write per probe interval still goes to primary so the breaker
// can close again.
type Store struct {
	primary   trace.Store
	secondary trace.Store
	breaker   *circuit.Breaker
	logger    *slog.Logger
	probe     time.Duration
	now       func() time.Time

	mu        sync.Mutex
	lastProbe time.Time
}

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithProbeInterval sets how often an open breaker lets a write through to primary.
func WithProbeInterval(d time.Duration) Option {
	return func(s *Store) { s.probe = d }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Store) { s.breaker = b }
}

func New(primary, secondary trace.Store, opts ...Option) *Store {
	s := &Store{
		primary:   primary,
		secondary: secondary,
		breaker:   circuit.New("trace-store"),
		logger:    slog.Default(),
		probe:     5 * time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Degraded reports whether writes are currently diverted.
func (s *Store) Degraded() bool {
	return s.breaker.IsOpen()
}

func (s *Store) Write(ctx context.Context, ns trace.Namespace, id domain.ExecutionID, payload []byte) (string, error) {
	if s.breaker.IsOpen() && !s.shouldProbe() {
		return s.secondary.Write(ctx, ns, id, payload)
	}

	loc, err := s.primary.Write(ctx, ns, id, payload)
	if err == nil || errors.Is(err, sentinel.ErrConflict) {
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			s.logger.InfoContext(ctx, "trace store recovered, writing to primary again")
		}
		return loc, err
	}

	useFallback, change := s.breaker.RecordFailure()
	if change.Opened {
		s.markProbed()
		s.logger.WarnContext(ctx, "trace store degraded, diverting writes to fallback", "error", err)
	}
	if !useFallback {
		return "", err
	}
	return s.secondary.Write(ctx, ns, id, payload)
}

// Read checks primary first and falls back to secondary on any miss or failure.
func (s *Store) Read(ctx context.Context, ns trace.Namespace, id domain.ExecutionID) ([]byte, error) {
	payload, err := s.primary.Read(ctx, ns, id)
	if err == nil {
		return payload, nil
	}
	payload, fbErr := s.secondary.Read(ctx, ns, id)
	if fbErr == nil {
		return payload, nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, fbErr
	}
	return nil, err
}

func (s *Store) shouldProbe() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if now.Sub(s.lastProbe) < s.probe {
		return false
	}
	s.lastProbe = now
	return true
}

func (s *Store) markProbed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastProbe = s.now()
}
