// Package trace records per-evaluator and per-workflow execution traces and
// persists them through a Store keyed by execution id.
package trace

import (
	"fmt"
	"maps"
	"time"

	"riskflow/internal/signal"
	"riskflow/pkg/domain"
	"riskflow/pkg/platform/sentinel"
)

// Clock returns the current time. Injected for deterministic tests.
type Clock func() time.Time

// Recorder mints trace records and drives their RUNNING → COMPLETED lifecycle.
// It holds no per-case state and is safe to share between concurrent runs.
type Recorder struct {
	now   Clock
	newID func() domain.ExecutionID
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(r *Recorder) {
		if clock != nil {
			r.now = clock
		}
	}
}

// WithIDGenerator overrides execution id minting.
func WithIDGenerator(gen func() domain.ExecutionID) Option {
	return func(r *Recorder) {
		if gen != nil {
			r.newID = gen
		}
	}
}

// NewRecorder creates a Recorder using wall-clock time and random v4 ids.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		now:   time.Now,
		newID: domain.NewExecutionID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StartAgent opens a RUNNING trace for one evaluator invocation. The input
// map is copied, with non-finite numbers rendered as strings.
func (r *Recorder) StartAgent(agent signal.Agent, caseID domain.CaseID, taskType string, input map[string]any) *AgentTrace {
	return &AgentTrace{
		ExecutionID: r.newID(),
		CaseID:      caseID,
		AgentName:   agent.Name(),
		TaskType:    taskType,
		StartedAt:   r.now(),
		Input:       signal.SanitizeInputs(input),
		Status:      StatusRunning,
	}
}

// FinalizeAgent freezes the outcome and marks the trace COMPLETED.
// Finalizing twice is a caller error: the second call still overwrites
// (last write wins) but returns an error wrapping sentinel.ErrInvalidState.
func (r *Recorder) FinalizeAgent(t *AgentTrace, out AgentOutcome) error {
	already := t.Status == StatusCompleted
	end := r.now()
	t.EndedAt = &end
	t.Signals = append([]signal.Signal(nil), out.Signals...)
	t.Decision = stringPtr(out.Decision)
	t.Reasoning = stringPtr(out.Reasoning)
	t.Confidence = copyFloat(out.Confidence)
	t.Status = StatusCompleted
	if already {
		return fmt.Errorf("agent trace %s finalized twice: %w", t.ExecutionID, sentinel.ErrInvalidState)
	}
	return nil
}

// StartWorkflow opens a RUNNING trace for one case execution. The workflow
// itself is named through the Agent capability (usually a signal.PseudoAgent).
func (r *Recorder) StartWorkflow(workflow signal.Agent, caseID domain.CaseID) *WorkflowTrace {
	return &WorkflowTrace{
		ExecutionID:   r.newID(),
		WorkflowName:  workflow.Name(),
		CaseID:        caseID,
		StartedAt:     r.now(),
		AgentsInvoked: []AgentInvocation{},
		Status:        StatusRunning,
	}
}

// RecordInvocation appends a finalized agent trace's summary. Order of calls
// is the order persisted in AgentsInvoked.
func (r *Recorder) RecordInvocation(w *WorkflowTrace, t *AgentTrace) error {
	if w.Status == StatusCompleted {
		return fmt.Errorf("workflow trace %s already completed: %w", w.ExecutionID, sentinel.ErrInvalidState)
	}
	if t.Status != StatusCompleted {
		return fmt.Errorf("agent trace %s not finalized: %w", t.ExecutionID, sentinel.ErrInvalidState)
	}
	w.AgentsInvoked = append(w.AgentsInvoked, AgentInvocation{
		AgentName:   t.AgentName,
		ExecutionID: t.ExecutionID,
		Decision:    t.Decision,
		Confidence:  t.Confidence,
	})
	return nil
}

// FinalizeWorkflow freezes the final decision and marks the trace COMPLETED.
// Same single-call contract as FinalizeAgent.
func (r *Recorder) FinalizeWorkflow(w *WorkflowTrace, out WorkflowOutcome) error {
	already := w.Status == StatusCompleted
	end := r.now()
	w.EndedAt = &end
	w.FinalDecision = stringPtr(out.Decision)
	w.FinalConfidence = copyFloat(out.Confidence)
	w.Explainability = out.Explainability
	w.Explainability.Weights = maps.Clone(out.Explainability.Weights)
	w.HumanReviewRequired = out.HumanReviewRequired
	w.Status = StatusCompleted
	if already {
		return fmt.Errorf("workflow trace %s finalized twice: %w", w.ExecutionID, sentinel.ErrInvalidState)
	}
	return nil
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
