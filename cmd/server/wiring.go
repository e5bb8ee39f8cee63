package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"riskflow/internal/platform/config"
	"riskflow/internal/platform/kafka"
	"riskflow/internal/platform/postgres"
	"riskflow/internal/platform/redis"
	"riskflow/internal/ratelimit"
	ratelimitmw "riskflow/internal/ratelimit/middleware"
	"riskflow/internal/ratelimit/store/bucket"
	"riskflow/internal/review"
	reviewkafka "riskflow/internal/review/kafka"
	"riskflow/internal/signal"
	"riskflow/internal/trace"
	tracefallback "riskflow/internal/trace/store/fallback"
	tracefile "riskflow/internal/trace/store/file"
	tracememory "riskflow/internal/trace/store/memory"
	tracepostgres "riskflow/internal/trace/store/postgres"
	traceredis "riskflow/internal/trace/store/redis"
	"riskflow/internal/workflow"
	"riskflow/internal/workflow/fraud"
	workflowmetrics "riskflow/internal/workflow/metrics"
	"riskflow/internal/workflow/vendor"
	"riskflow/pkg/platform/audit"
	"riskflow/pkg/platform/audit/publisher"
	auditmemory "riskflow/pkg/platform/audit/store/memory"
	auditpostgres "riskflow/pkg/platform/audit/store/postgres"
)

// app holds the wired collaborators and everything that must be closed on exit.
type app struct {
	registry *workflow.Registry
	traces   trace.Store
	audit    *publisher.Publisher
	limiter  *ratelimitmw.Middleware
	redis    *redis.Client
	closers  []func()
}

// redisClient connects on first use and is shared by every redis consumer.
func (a *app) redisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	client, err := redis.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, errors.New("redis is not configured")
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	a.redis = client
	return client, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg config.Config, log *slog.Logger, reg prometheus.Registerer) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.traces, err = newTraceStore(ctx, cfg, log, reg, a)
	if err != nil {
		return nil, err
	}
	if dir := cfg.TraceStore.FallbackDir; dir != "" && remoteTraceBackend(cfg.TraceStore.Backend) {
		secondary, err := tracefile.New(dir)
		if err != nil {
			return nil, fmt.Errorf("open trace fallback: %w", err)
		}
		a.traces = tracefallback.New(a.traces, secondary, tracefallback.WithLogger(log))
	}

	auditStore, err := newAuditStore(ctx, cfg, a)
	if err != nil {
		return nil, err
	}
	a.audit, err = publisher.New(auditStore,
		publisher.WithLogger(log),
		publisher.WithMetrics(publisher.NewMetrics(reg)),
	)
	if err != nil {
		return nil, err
	}

	reviewer, err := newReviewer(ctx, cfg, log, a)
	if err != nil {
		return nil, err
	}

	m := workflowmetrics.New(reg)
	opts := []workflow.Option{workflow.WithLogger(log), workflow.WithMetrics(m)}

	fraudRun, err := workflow.New(fraud.Definition(weightsFor(cfg, fraud.Name)), a.traces, a.audit, reviewer, opts...)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", fraud.Name, err)
	}
	vendorRun, err := workflow.New(vendor.Definition(weightsFor(cfg, vendor.Name)), a.traces, a.audit, reviewer, opts...)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", vendor.Name, err)
	}
	a.registry, err = workflow.NewRegistry(fraudRun, vendorRun)
	if err != nil {
		return nil, err
	}

	if cfg.RateLimit.Enabled {
		a.limiter, err = newLimiter(ctx, cfg, log, a)
		if err != nil {
			return nil, err
		}
	}
	return a, nil
}

func newLimiter(ctx context.Context, cfg config.Config, log *slog.Logger, a *app) (*ratelimitmw.Middleware, error) {
	limit := ratelimit.Limit{RequestsPerWindow: cfg.RateLimit.RequestsPerWindow, Window: cfg.RateLimit.Window}
	switch cfg.RateLimit.Backend {
	case config.BackendMemory:
		return ratelimitmw.New(bucket.New(), limit, log), nil
	case config.BackendRedis:
		client, err := a.redisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return ratelimitmw.New(bucket.NewRedis(client.Client), limit, log, ratelimitmw.WithFallback(bucket.New())), nil
	default:
		return nil, fmt.Errorf("unsupported rate limit backend %q", cfg.RateLimit.Backend)
	}
}

// submitMiddleware returns the middleware guarding case submission.
func (a *app) submitMiddleware() []func(http.Handler) http.Handler {
	if a.limiter == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{a.limiter.Submissions}
}

func newTraceStore(ctx context.Context, cfg config.Config, log *slog.Logger, reg prometheus.Registerer, a *app) (trace.Store, error) {
	switch cfg.TraceStore.Backend {
	case config.BackendMemory:
		log.Warn("trace store is in memory; traces are lost on restart")
		return tracememory.NewInMemoryStore(), nil
	case config.BackendFile:
		return tracefile.New(cfg.TraceStore.Dir)
	case config.BackendRedis:
		client, err := a.redisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return traceredis.New(client.Client, traceredis.WithRegisterer(reg)), nil
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		store := tracepostgres.New(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported trace backend %q", cfg.TraceStore.Backend)
	}
}

func newAuditStore(ctx context.Context, cfg config.Config, a *app) (audit.Store, error) {
	switch cfg.Audit.Backend {
	case config.BackendMemory:
		return auditmemory.NewInMemoryStore(), nil
	case config.BackendPostgres:
		db, err := postgres.OpenDB(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		store := auditpostgres.New(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported audit backend %q", cfg.Audit.Backend)
	}
}

func newReviewer(ctx context.Context, cfg config.Config, log *slog.Logger, a *app) (review.Requester, error) {
	switch cfg.Review.Backend {
	case config.BackendLog:
		return review.NewLogRequester(log), nil
	case config.BackendKafka:
		client, err := kafka.New(ctx, kafka.Config{Brokers: cfg.Review.Brokers, ClientID: "riskflow"})
		if err != nil {
			return nil, err
		}
		if client == nil {
			return nil, errors.New("kafka review backend has no brokers")
		}
		a.closers = append(a.closers, func() {
			if err := kafka.Close(client, cfg.Server.ShutdownTimeout); err != nil {
				log.Warn("review requests may be lost", "error", err)
			}
		})
		if err := kafka.EnsureTopic(ctx, client, cfg.Review.Topic, cfg.Review.Partitions, 1); err != nil {
			return nil, fmt.Errorf("ensure review topic: %w", err)
		}
		return reviewkafka.New(client, reviewkafka.WithTopic(cfg.Review.Topic), reviewkafka.WithLogger(log))
	default:
		return nil, fmt.Errorf("unsupported review backend %q", cfg.Review.Backend)
	}
}

func remoteTraceBackend(backend string) bool {
	return backend == config.BackendRedis || backend == config.BackendPostgres
}

// weightsFor converts configured weights for one workflow; nil selects the
// workflow's defaults.
func weightsFor(cfg config.Config, name string) map[signal.Type]float64 {
	raw, ok := cfg.Workflows[name]
	if !ok || len(raw) == 0 {
		return nil
	}
	out := make(map[signal.Type]float64, len(raw))
	for k, v := range raw {
		out[signal.Type(k)] = v
	}
	return out
}
