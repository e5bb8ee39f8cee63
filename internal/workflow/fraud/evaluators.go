package fraud

import (
	"fmt"

	"riskflow/internal/signal"
)

// Signal types produced by the fraud workflow.
const (
	SignalFraudRisk    signal.Type = "fraud_risk"
	SignalEntityRisk   signal.Type = "entity_risk"
	SignalCompliance   signal.Type = "compliance"
	SignalTenureRisk   signal.Type = "tenure_risk"
	SignalVelocityRisk signal.Type = "velocity_risk"
	SignalAmountRisk   signal.Type = "amount_risk"
)

// SafeTenureDays is the tenure below which a customer is high risk.
const SafeTenureDays = 30

// Evaluators returns the fraud evaluators in declared order.
func Evaluators() []signal.Evaluator[Facts] {
	return []signal.Evaluator[Facts]{
		signal.Threshold[Facts]{
			Agent: "fraud_score_agent", Signal: SignalFraudRisk, Key: KeyFraudScore,
			Read:     func(f Facts) signal.Fact[float64] { return f.FraudScore },
			High:     80,
			Medium:   50,
			Required: true,
			Fallback: signal.High,
		},
		signal.Threshold[Facts]{
			Agent: "entity_risk_agent", Signal: SignalEntityRisk, Key: KeyHistoricalRisk,
			Read:     func(f Facts) signal.Fact[float64] { return f.HistoricalRisk },
			High:     70,
			Medium:   40,
			Required: true,
			Fallback: signal.High,
		},
		ComplianceEvaluator{},
		TenureEvaluator{},
		signal.Threshold[Facts]{
			Agent: "velocity_agent", Signal: SignalVelocityRisk, Key: KeyTransactions24h,
			Read:     func(f Facts) signal.Fact[float64] { return f.Transactions24h },
			High:     20,
			Medium:   5,
			Fallback: signal.Low,
		},
		signal.Threshold[Facts]{
			Agent: "amount_agent", Signal: SignalAmountRisk, Key: KeyAmount,
			Read:     func(f Facts) signal.Fact[float64] { return f.Amount },
			High:     10000,
			Medium:   1000,
			Fallback: signal.Low,
		},
	}
}

// ComplianceEvaluator flags regulated transactions. An unknown regulatory
// status is treated as regulated.
type ComplianceEvaluator struct{}

func (ComplianceEvaluator) Name() string { return "compliance_agent" }

func (ComplianceEvaluator) Type() signal.Type { return SignalCompliance }

func (ComplianceEvaluator) Evaluate(f Facts) signal.Signal {
	fact := f.RegulatedTransaction
	s := signal.Signal{
		Agent:      "compliance_agent",
		Type:       SignalCompliance,
		Confidence: signal.FullConfidence,
		Inputs:     map[string]any{KeyRegulatedTransaction: fact.Snapshot()},
	}
	switch {
	case !fact.Present():
		s.Level, s.Flag = signal.High, signal.FlagReviewRequired
		s.Confidence = signal.DefaultedConfidence
		s.Defaulted = true
		s.Reason = signal.DefaultReason(KeyRegulatedTransaction, fact.State, string(signal.FlagReviewRequired))
	case fact.Value:
		s.Level, s.Flag = signal.High, signal.FlagReviewRequired
		s.Reason = "regulated transaction requires review"
	default:
		s.Level, s.Flag = signal.Low, signal.FlagClear
		s.Reason = "transaction is not regulated"
	}
	return s
}

// TenureEvaluator rates customers younger than SafeTenureDays as HIGH risk.
type TenureEvaluator struct{}

func (TenureEvaluator) Name() string { return "tenure_agent" }

func (TenureEvaluator) Type() signal.Type { return SignalTenureRisk }

func (TenureEvaluator) Evaluate(f Facts) signal.Signal {
	fact := f.CustomerTenureDays
	s := signal.Signal{
		Agent:      "tenure_agent",
		Type:       SignalTenureRisk,
		Confidence: signal.FullConfidence,
		Inputs:     map[string]any{KeyCustomerTenureDays: fact.Snapshot()},
	}
	if !fact.Present() {
		s.Level = signal.High
		s.Confidence = signal.DefaultedConfidence
		s.Defaulted = true
		s.Reason = signal.DefaultReason(KeyCustomerTenureDays, fact.State, string(signal.High))
		return s
	}
	s.Value = signal.Float(fact.Value)
	if fact.Value < SafeTenureDays {
		s.Level = signal.High
		s.Reason = fmt.Sprintf("tenure %s days is below %d", signal.FormatNumber(fact.Value), SafeTenureDays)
	} else {
		s.Level = signal.Low
		s.Reason = fmt.Sprintf("tenure %s days", signal.FormatNumber(fact.Value))
	}
	return s
}
