// Package workflow runs cases through a declared sequence of evaluators,
// applies a workflow's supervisor and escalation rules, and records traces
// and the audit log for every decision.
package workflow

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"riskflow/internal/signal"
	"riskflow/pkg/domain"
	audit "riskflow/pkg/platform/audit"
)

// Label is a decision label. Each workflow allows its own subset.
type Label string

const (
	LabelEscalate Label = "ESCALATE"
	LabelClose    Label = "CLOSE"
	LabelReview   Label = "REVIEW"
	LabelApprove  Label = "APPROVE"
	LabelReject   Label = "REJECT"
	LabelPending  Label = "PENDING"
)

// Status is the resolution state of a decided case.
type Status string

const (
	StatusAutoResolved       Status = "AUTO_RESOLVED"
	StatusAutoApproved       Status = "AUTO_APPROVED"
	StatusPendingHumanReview Status = "PENDING_HUMAN_REVIEW"
)

// Case is one submission: an identifier plus loosely typed facts and context.
// The orchestrator never mutates the maps it receives.
type Case struct {
	ID      string
	Facts   map[string]any
	Context map[string]any
}

// Inputs is the map evaluators read: facts overlaid with context, context
// winning on a shared key.
func (c Case) Inputs() map[string]any {
	out := make(map[string]any, len(c.Facts)+len(c.Context))
	maps.Copy(out, c.Facts)
	maps.Copy(out, c.Context)
	return out
}

// Recommendation is the supervisor's output for one analysis.
type Recommendation struct {
	Decision Label
	Reason   string
}

// Definition declares a workflow over typed facts F and a typed analysis A.
//
// Evaluators run in slice order. Analyze merges their signals into A and
// must drop signal types it does not know. Decide applies first-match-wins
// rules; RequiresHumanReview is evaluated independently and can override it.
type Definition[F, A any] struct {
	Name                string
	Facts               func(raw map[string]any) F
	Evaluators          []signal.Evaluator[F]
	Weights             map[signal.Type]float64
	Analyze             func(signals []signal.Signal) A
	Decide              func(analysis A) Recommendation
	RequiresHumanReview func(analysis A) bool
	AutoStatus          Status
	Labels              []Label
}

// Validate checks that the definition is complete.
func (d Definition[F, A]) Validate() error {
	var errs []error
	if d.Name == "" {
		errs = append(errs, errors.New("workflow name is required"))
	}
	if d.Facts == nil {
		errs = append(errs, errors.New("facts parser is required"))
	}
	if len(d.Evaluators) == 0 {
		errs = append(errs, errors.New("at least one evaluator is required"))
	}
	if d.Analyze == nil || d.Decide == nil || d.RequiresHumanReview == nil {
		errs = append(errs, errors.New("analyze, decide and escalation rules are required"))
	}
	if d.AutoStatus != StatusAutoResolved && d.AutoStatus != StatusAutoApproved {
		errs = append(errs, fmt.Errorf("invalid auto status %q", d.AutoStatus))
	}
	if !slices.Contains(d.Labels, LabelPending) {
		errs = append(errs, errors.New("labels must include PENDING"))
	}
	for w, v := range d.Weights {
		if v < 0 {
			errs = append(errs, fmt.Errorf("weight for %s must not be negative", w))
		}
	}
	seen := make(map[string]struct{}, len(d.Evaluators))
	for _, e := range d.Evaluators {
		if _, dup := seen[e.Name()]; dup {
			errs = append(errs, fmt.Errorf("duplicate evaluator %s", e.Name()))
		}
		seen[e.Name()] = struct{}{}
	}
	return errors.Join(errs...)
}

// Allows reports whether label is one of the workflow's decision labels.
func (d Definition[F, A]) Allows(label Label) bool {
	return slices.Contains(d.Labels, label)
}

// Decision is the result of one case run.
//
// AuditPersisted is false when any trace write or the audit append failed;
// Warnings then says what was lost. The decision itself stands either way.
type Decision struct {
	CaseID              domain.CaseID      `json:"case_id"`
	Workflow            string             `json:"workflow"`
	ExecutionID         domain.ExecutionID `json:"execution_id"`
	Decision            Label              `json:"decision"`
	Reason              string             `json:"reason"`
	Status              Status             `json:"status"`
	RiskScore           int                `json:"risk_score"`
	Confidence          *float64           `json:"confidence"`
	Signals             []signal.Signal    `json:"signals"`
	Analysis            any                `json:"analysis"`
	Explanation         string             `json:"explanation"`
	HumanReviewRequired bool               `json:"human_review_required"`
	Audit               audit.Entry        `json:"audit"`
	AuditPersisted      bool               `json:"audit_persisted"`
	Warnings            []string           `json:"warnings,omitempty"`
}
