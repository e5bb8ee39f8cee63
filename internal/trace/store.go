package trace

import (
	"context"
	"encoding/json"
	"fmt"

	"riskflow/pkg/domain"
	"riskflow/pkg/platform/sentinel"
)

// Namespace separates workflow-level traces from per-evaluator traces.
type Namespace string

const (
	NamespaceWorkflows Namespace = "workflows"
	NamespaceAgents    Namespace = "agents"
)

// ParseNamespace validates a namespace from an untrusted source.
func ParseNamespace(s string) (Namespace, error) {
	ns := Namespace(s)
	if !ns.Valid() {
		return "", fmt.Errorf("unknown trace namespace %q: %w", s, sentinel.ErrNotFound)
	}
	return ns, nil
}

// Valid reports whether ns is a known namespace.
func (ns Namespace) Valid() bool {
	return ns == NamespaceWorkflows || ns == NamespaceAgents
}

// Store durably persists serialized traces keyed by (namespace, execution id).
//
// Write must be atomic: a reader never observes a partial record. Writing an
// identical payload to an existing key succeeds and returns the same location;
// a different payload under an existing key fails with sentinel.ErrConflict.
// Writers to distinct keys need no coordination.
type Store interface {
	Write(ctx context.Context, ns Namespace, id domain.ExecutionID, payload []byte) (location string, err error)
	Read(ctx context.Context, ns Namespace, id domain.ExecutionID) ([]byte, error)
}

// Writer serializes completed traces and hands them to a Store.
type Writer struct {
	store Store
}

// NewWriter wraps a Store.
func NewWriter(store Store) *Writer {
	return &Writer{store: store}
}

// WriteAgent persists a completed agent trace.
func (w *Writer) WriteAgent(ctx context.Context, t *AgentTrace) (string, error) {
	if t.Status != StatusCompleted {
		return "", fmt.Errorf("persist agent trace %s: %w", t.ExecutionID, sentinel.ErrInvalidState)
	}
	return w.write(ctx, NamespaceAgents, t.ExecutionID, t)
}

// WriteWorkflow persists a completed workflow trace.
func (w *Writer) WriteWorkflow(ctx context.Context, t *WorkflowTrace) (string, error) {
	if t.Status != StatusCompleted {
		return "", fmt.Errorf("persist workflow trace %s: %w", t.ExecutionID, sentinel.ErrInvalidState)
	}
	return w.write(ctx, NamespaceWorkflows, t.ExecutionID, t)
}

func (w *Writer) write(ctx context.Context, ns Namespace, id domain.ExecutionID, v any) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal %s trace %s: %w", ns, id, err)
	}
	loc, err := w.store.Write(ctx, ns, id, payload)
	if err != nil {
		return "", fmt.Errorf("write %s trace %s: %w", ns, id, err)
	}
	return loc, nil
}
