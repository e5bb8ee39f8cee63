package signal

import (
	"fmt"
	"strconv"
)

// Threshold maps one numeric fact onto a level with inclusive lower bounds:
// v >= High is HIGH, v >= Medium is MEDIUM, anything else LOW.
//
// A Required fact that is absent, or any malformed fact, yields Fallback with
// DefaultedConfidence and FallbackValue (if set) as the signal value. An
// absent optional fact yields LOW at full confidence.
type Threshold[F any] struct {
	Agent    string
	Signal   Type
	Key      string
	Read     func(F) Fact[float64]
	High     float64
	Medium   float64
	Required bool
	Fallback RiskLevel

	FallbackValue *float64
}

func (t Threshold[F]) Name() string { return t.Agent }

func (t Threshold[F]) Type() Type { return t.Signal }

func (t Threshold[F]) Evaluate(facts F) Signal {
	fact := t.Read(facts)
	s := Signal{
		Agent:      t.Agent,
		Type:       t.Signal,
		Confidence: FullConfidence,
		Inputs:     map[string]any{t.Key: fact.Snapshot()},
	}

	switch {
	case fact.Present():
		s.Level = Tiered(fact.Value, t.High, t.Medium)
		s.Value = Float(fact.Value)
		s.Reason = fmt.Sprintf("%s=%s is %s", t.Key, FormatNumber(fact.Value), s.Level)
	case fact.Usable(t.Required):
		s.Level = Low
		s.Reason = fmt.Sprintf("%s not supplied", t.Key)
	default:
		s.Level = t.Fallback
		s.Confidence = DefaultedConfidence
		s.Defaulted = true
		s.Reason = DefaultReason(t.Key, fact.State, string(t.Fallback))
		if t.FallbackValue != nil {
			s.Value = Float(*t.FallbackValue)
		}
	}
	return s
}

// DefaultReason explains why an evaluator fell back to its conservative outcome.
func DefaultReason(key string, state FactState, outcome string) string {
	if state == FactMalformed {
		return fmt.Sprintf("%s malformed, defaulting to %s", key, outcome)
	}
	return fmt.Sprintf("%s missing, defaulting to %s", key, outcome)
}

// FormatNumber renders a fact value without trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
