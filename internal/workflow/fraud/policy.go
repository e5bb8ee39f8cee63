package fraud

import (
	"riskflow/internal/signal"
	"riskflow/internal/workflow"
)

// Name is the registry name of the fraud workflow.
const Name = "fraud_triage"

// Analysis is the merged view of a fraud case's signals. A signal type that
// was not produced stays empty and matches no rule.
type Analysis struct {
	FraudRisk    signal.RiskLevel `json:"fraud_risk,omitempty"`
	EntityRisk   signal.RiskLevel `json:"entity_risk,omitempty"`
	Compliance   signal.Flag      `json:"compliance,omitempty"`
	TenureRisk   signal.RiskLevel `json:"tenure_risk,omitempty"`
	VelocityRisk signal.RiskLevel `json:"velocity_risk,omitempty"`
	AmountRisk   signal.RiskLevel `json:"amount_risk,omitempty"`
}

// Analyze merges signals by type. Unknown types are dropped.
func Analyze(signals []signal.Signal) Analysis {
	var a Analysis
	for _, s := range signals {
		switch s.Type {
		case SignalFraudRisk:
			a.FraudRisk = s.Level
		case SignalEntityRisk:
			a.EntityRisk = s.Level
		case SignalCompliance:
			a.Compliance = s.Flag
		case SignalTenureRisk:
			a.TenureRisk = s.Level
		case SignalVelocityRisk:
			a.VelocityRisk = s.Level
		case SignalAmountRisk:
			a.AmountRisk = s.Level
		}
	}
	return a
}

// Decide applies the fraud supervisor rules, first match wins:
//  1. HIGH fraud risk → ESCALATE
//  2. LOW fraud risk and LOW entity risk → CLOSE
//  3. otherwise → REVIEW
func Decide(a Analysis) workflow.Recommendation {
	if a.FraudRisk == signal.High {
		return workflow.Recommendation{Decision: workflow.LabelEscalate, Reason: "High fraud risk detected"}
	}
	if a.FraudRisk == signal.Low && a.EntityRisk == signal.Low {
		return workflow.Recommendation{Decision: workflow.LabelClose, Reason: "Low fraud risk and clean history"}
	}
	return workflow.Recommendation{Decision: workflow.LabelReview, Reason: "Moderate fraud indicators"}
}

// RequiresHumanReview is true for HIGH fraud risk, HIGH entity risk, or a
// compliance review flag.
func RequiresHumanReview(a Analysis) bool {
	return a.FraudRisk == signal.High ||
		a.EntityRisk == signal.High ||
		a.Compliance == signal.FlagReviewRequired
}

// DefaultWeights are the aggregation weights per signal type.
func DefaultWeights() map[signal.Type]float64 {
	return map[signal.Type]float64{
		SignalFraudRisk:    0.35,
		SignalEntityRisk:   0.25,
		SignalCompliance:   0.15,
		SignalTenureRisk:   0.1,
		SignalVelocityRisk: 0.1,
		SignalAmountRisk:   0.05,
	}
}

// Definition builds the fraud workflow. A nil weights map uses DefaultWeights.
func Definition(weights map[signal.Type]float64) workflow.Definition[Facts, Analysis] {
	if weights == nil {
		weights = DefaultWeights()
	}
	return workflow.Definition[Facts, Analysis]{
		Name:                Name,
		Facts:               ParseFacts,
		Evaluators:          Evaluators(),
		Weights:             weights,
		Analyze:             Analyze,
		Decide:              Decide,
		RequiresHumanReview: RequiresHumanReview,
		AutoStatus:          workflow.StatusAutoResolved,
		Labels: []workflow.Label{
			workflow.LabelEscalate,
			workflow.LabelClose,
			workflow.LabelReview,
			workflow.LabelPending,
		},
	}
}
