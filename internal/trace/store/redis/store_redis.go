package redis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"riskflow/internal/trace"
	"riskflow/pkg/domain"
	"riskflow/pkg/platform/sentinel"
)

const keyPrefix = "riskflow:trace:"

// Store persists traces as Redis string values. SETNX makes each key
// write-once, and a single SET is atomic so readers never see partial data.
type Store struct {
	client    *redis.Client
	retention time.Duration
	reg       prometheus.Registerer

	writeDurationMs prometheus.Histogram
}

// Option configures a Store.
type Option func(*Store)

// WithRetention expires traces after d. Zero keeps them forever.
func WithRetention(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithRegisterer registers the write latency histogram on reg. Without it
// the histogram is kept but not exported.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Store) {
		s.reg = reg
	}
}

// New constructs a Redis-backed trace store. The client lifecycle is managed
// by the caller.
func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.writeDurationMs = promauto.With(s.reg).NewHistogram(prometheus.HistogramOpts{
		Name:    "riskflow_trace_redis_write_duration_ms",
		Help:    "Latency of trace writes to Redis in milliseconds",
		Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
	})
	return s
}

func key(ns trace.Namespace, id domain.ExecutionID) string {
	return keyPrefix + string(ns) + ":" + id.String()
}

// Write stores payload under the key unless it already exists. An existing
// identical payload is treated as success.
func (s *Store) Write(ctx context.Context, ns trace.Namespace, id domain.ExecutionID, payload []byte) (string, error) {
	start := time.Now()
	defer func() {
		s.writeDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	k := key(ns, id)
	loc := "redis://" + k
	created, err := s.client.SetNX(ctx, k, payload, s.retention).Result()
	if err != nil {
		return "", fmt.Errorf("setnx trace: %w", err)
	}
	if created {
		return loc, nil
	}

	existing, err := s.client.Get(ctx, k).Bytes()
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
	payload, err := s.client.Get(ctx, key(ns, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("trace %s/%s: %w", ns, id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get trace: %w", err)
	}
	return payload, nil
}
