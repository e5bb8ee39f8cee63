// Package ports declares the collaborators a workflow run writes to.
package ports

//go:generate mockgen -source=ports.go -destination=../mocks/mocks.go -package=mocks TraceStore,AuditPort,ReviewPort

import (
	"context"

	"riskflow/internal/review"
	"riskflow/internal/trace"
	"riskflow/pkg/domain"
	audit "riskflow/pkg/platform/audit"
)

// TraceStore persists serialized traces. Satisfied by every trace.Store backend.
type TraceStore interface {
	Write(ctx context.Context, ns trace.Namespace, id domain.ExecutionID, payload []byte) (string, error)
	Read(ctx context.Context, ns trace.Namespace, id domain.ExecutionID) ([]byte, error)
}

// AuditPort appends the audit entry for a decided case.
type AuditPort interface {
	Emit(ctx context.Context, entry audit.Entry) error
}

// ReviewPort notifies human reviewers of an escalated case.
type ReviewPort interface {
	RequestReview(ctx context.Context, req review.Request) error
}
