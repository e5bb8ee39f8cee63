package trace

import (
	"time"

	"riskflow/internal/signal"
	"riskflow/pkg/domain"
)

// Status is the lifecycle state of a trace record.
type Status string

const (
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
)

// AgentTrace records one evaluator invocation. It is created when the
// invocation starts, finalized once, then persisted and never mutated.
type AgentTrace struct {
	ExecutionID domain.ExecutionID `json:"execution_id"`
	CaseID      domain.CaseID      `json:"case_id"`
	AgentName   string             `json:"agent_name"`
	TaskType    string             `json:"task_type"`
	StartedAt   time.Time          `json:"started_at"`
	EndedAt     *time.Time         `json:"ended_at"`
	Input       map[string]any     `json:"input"`
	Signals     []signal.Signal    `json:"signals"`
	Decision    *string            `json:"decision"`
	Reasoning   *string            `json:"reasoning"`
	Confidence  *float64           `json:"confidence"`
	Status      Status             `json:"status"`
}

// AgentOutcome is the terminal output frozen into an AgentTrace.
type AgentOutcome struct {
	Signals    []signal.Signal
	Decision   string
	Reasoning  string
	Confidence *float64
}

// AgentInvocation summarizes one evaluator run inside a WorkflowTrace.
type AgentInvocation struct {
	AgentName   string             `json:"agent_name"`
	ExecutionID domain.ExecutionID `json:"execution_id"`
	Decision    *string            `json:"decision"`
	Confidence  *float64           `json:"confidence"`
}

// Explainability captures how the final confidence and risk score were derived.
type Explainability struct {
	AggregationMethod string             `json:"aggregation_method"`
	Weights           map[string]float64 `json:"weights"`
	RiskScore         int                `json:"risk_score"`
	ConfidenceMissing bool               `json:"confidence_missing,omitempty"`
	Recommendation    string             `json:"recommendation,omitempty"`
	Reason            string             `json:"reason,omitempty"`
}

// WorkflowTrace records one case execution end to end. AgentsInvoked is in
// evaluator invocation order.
type WorkflowTrace struct {
	ExecutionID         domain.ExecutionID `json:"execution_id"`
	WorkflowName        string             `json:"workflow_name"`
	CaseID              domain.CaseID      `json:"case_id"`
	StartedAt           time.Time          `json:"started_at"`
	EndedAt             *time.Time         `json:"ended_at"`
	AgentsInvoked       []AgentInvocation  `json:"agents_invoked"`
	FinalDecision       *string            `json:"final_decision"`
	FinalConfidence     *float64           `json:"final_confidence"`
	Explainability      Explainability     `json:"explainability"`
	HumanReviewRequired bool               `json:"human_review_required"`
	Status              Status             `json:"status"`
}

// WorkflowOutcome is the terminal output frozen into a WorkflowTrace.
type WorkflowOutcome struct {
	Decision            string
	Confidence          *float64
	Explainability      Explainability
	HumanReviewRequired bool
}
