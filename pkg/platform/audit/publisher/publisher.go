// Package publisher writes case decisions to the audit log.
//
// Emit is synchronous: the caller blocks until the store accepts the entry
// or fails. A failure is returned to the caller, which decides whether the
// surrounding operation degrades or aborts.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"riskflow/pkg/domain"
	dErrors "riskflow/pkg/domain-errors"
	audit "riskflow/pkg/platform/audit"
	"riskflow/pkg/requestcontext"
)

// Publisher validates and appends audit entries.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func New(store audit.Store, opts ...Option) (*Publisher, error) {
	if store == nil {
		return nil, errors.New("audit store is required")
	}
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Emit appends entry to the audit log. RecordedAt defaults to the request
// time carried on ctx.
func (p *Publisher) Emit(ctx context.Context, entry audit.Entry) error {
	start := time.Now()

	if entry.CaseID == "" {
		return dErrors.New(dErrors.CodeValidation, "audit entry requires case_id")
	}
	if entry.Decision == "" {
		return dErrors.New(dErrors.CodeValidation, "audit entry requires decision")
	}
	if entry.Action == "" {
		entry.Action = audit.ActionDecisionMade
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = requestcontext.Now(ctx)
	}

	if err := p.store.Append(ctx, entry); err != nil {
		p.metrics.IncPersistFailures()
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "audit append failed",
				"case_id", entry.CaseID,
				"execution_id", entry.ExecutionID.String(),
				"error", err,
			)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "audit persistence failed")
	}

	p.metrics.ObservePersistDuration(time.Since(start).Seconds())
	p.metrics.IncEntriesEmitted()
	return nil
}

// List returns the audit history for a case.
func (p *Publisher) List(ctx context.Context, caseID domain.CaseID) ([]audit.Entry, error) {
	entries, err := p.store.ListByCase(ctx, caseID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit entries")
	}
	return entries, nil
}
