package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"riskflow/internal/ratelimit"
	"riskflow/pkg/platform/circuit"
	"riskflow/pkg/platform/httputil"
	"riskflow/pkg/requestcontext"
)

// HeaderStatus is set to "degraded" while the fallback store is in use.
const HeaderStatus = "X-RateLimit-Status"

// Middleware enforces a per-caller submission budget. When the primary store
// keeps failing, a circuit breaker moves checks onto an in-process fallback.
type Middleware struct {
	primary  ratelimit.BucketStore
	fallback ratelimit.BucketStore
	breaker  *circuit.Breaker
	limit    ratelimit.Limit
	logger   *slog.Logger
}

type Option func(*Middleware)

func WithFallback(store ratelimit.BucketStore) Option {
	return func(m *Middleware) { m.fallback = store }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(m *Middleware) { m.breaker = b }
}

func New(primary ratelimit.BucketStore, limit ratelimit.Limit, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		primary: primary,
		limit:   limit,
		logger:  logger,
		breaker: circuit.New("rate-limit"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Submissions limits requests by authenticated subject, or client IP when
// the request is anonymous.
func (m *Middleware) Submissions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		caller := requestcontext.Subject(ctx)
		if caller == "" {
			caller = "ip:" + requestcontext.ClientIP(ctx)
		}
		key := ratelimit.SubmissionKey(caller)

		var (
			result   *ratelimit.Result
			err      error
			degraded bool
		)
		if m.breaker.IsOpen() && m.fallback != nil {
			degraded = true
			result, err = m.fallback.Allow(ctx, key, m.limit.RequestsPerWindow, m.limit.Window)
			// Probe primary under a separate key so the breaker can close.
			if _, perr := m.primary.Allow(ctx, key+":probe", m.limit.RequestsPerWindow, m.limit.Window); perr == nil {
				if _, change := m.breaker.RecordSuccess(); change.Closed {
					m.logger.InfoContext(ctx, "rate limit store recovered")
				}
			} else {
				m.breaker.RecordFailure()
			}
		} else {
			result, err = m.primary.Allow(ctx, key, m.limit.RequestsPerWindow, m.limit.Window)
			if err != nil {
				useFallback, change := m.breaker.RecordFailure()
				if change.Opened {
					m.logger.WarnContext(ctx, "rate limit store degraded, using in-process fallback", "error", err)
				}
				if useFallback && m.fallback != nil {
					degraded = true
					result, err = m.fallback.Allow(ctx, key, m.limit.RequestsPerWindow, m.limit.Window)
				}
			} else {
				m.breaker.RecordSuccess()
			}
		}

		if err != nil {
			m.logger.ErrorContext(ctx, "rate limit check failed, allowing request",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			next.ServeHTTP(w, r)
			return
		}

		if degraded {
			w.Header().Set(HeaderStatus, "degraded")
		}
		addRateLimitHeaders(w, result)
		if !result.Allowed {
			m.logger.WarnContext(ctx, "submission rate limit exceeded",
				"caller", caller,
				"request_id", requestcontext.RequestID(ctx),
			)
			writeRateLimitExceeded(w, result)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func addRateLimitHeaders(w http.ResponseWriter, result *ratelimit.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *ratelimit.Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]any{
		"error":             "rate_limit_exceeded",
		"error_description": "Too many case submissions. Please try again later.",
		"retry_after":       result.RetryAfter,
	})
}
