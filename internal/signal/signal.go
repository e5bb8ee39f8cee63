// Package signal defines the risk signals produced by evaluators and the
// evaluator capability itself.
//
// Evaluators are pure: they read typed case facts and return one Signal.
// They never fail. Absent required facts or malformed values degrade to the
// evaluator's most conservative outcome, flagged by Signal.Defaulted.
package signal

import (
	"fmt"
)

// RiskLevel is the enumerated outcome of a categorical evaluator.
type RiskLevel string

const (
	Low    RiskLevel = "LOW"
	Medium RiskLevel = "MEDIUM"
	High   RiskLevel = "HIGH"
)

// ParseRiskLevel validates a serialized risk level.
func ParseRiskLevel(s string) (RiskLevel, error) {
	l := RiskLevel(s)
	if !l.Valid() {
		return "", fmt.Errorf("unknown risk level %q", s)
	}
	return l, nil
}

// Valid reports whether l is one of the known levels.
func (l RiskLevel) Valid() bool {
	switch l {
	case Low, Medium, High:
		return true
	}
	return false
}

func (l RiskLevel) String() string { return string(l) }

// Confidence values attached to every Signal.
const (
	FullConfidence      = 1.0
	DefaultedConfidence = 0.5
)

// Flag is a categorical verdict carried alongside a level, used by
// compliance evaluators.
type Flag string

const (
	FlagReviewRequired Flag = "REVIEW_REQUIRED"
	FlagClear          Flag = "CLEAR"
)

// Type tags the kind of risk a Signal describes (fraud_risk, compliance, ...).
type Type string

// Signal is the output of one evaluator for one case. It is recomputed per
// case and only ever persisted as part of a trace.
type Signal struct {
	Agent      string         `json:"agent"`
	Type       Type           `json:"type"`
	Level      RiskLevel      `json:"level"`
	Flag       Flag           `json:"flag,omitempty"`
	Value      *float64       `json:"value,omitempty"`
	Confidence float64        `json:"confidence"`
	Defaulted  bool           `json:"defaulted"`
	Inputs     map[string]any `json:"inputs"`
	Reason     string         `json:"reason"`
}

// IsHigh reports whether the signal counts towards the additive risk score.
func (s Signal) IsHigh() bool { return s.Level == High }

// Agent is anything that can be recorded in a trace under a name.
type Agent interface {
	Name() string
}

// Evaluator computes one named signal from typed case facts.
type Evaluator[F any] interface {
	Agent
	Type() Type
	Evaluate(facts F) Signal
}

// PseudoAgent lets the orchestrator record itself (or any non-evaluator step)
// in a trace under a name without implementing Evaluate.
type PseudoAgent string

func (p PseudoAgent) Name() string { return string(p) }

// Tiered maps a score onto a risk level using inclusive lower bounds.
func Tiered(v, high, medium float64) RiskLevel {
	switch {
	case v >= high:
		return High
	case v >= medium:
		return Medium
	default:
		return Low
	}
}

// Float returns a pointer to v for Signal.Value.
func Float(v float64) *float64 { return &v }
