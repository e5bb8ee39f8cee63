package fraud

import "riskflow/internal/signal"

// Fact keys read by the fraud workflow. Other keys are ignored.
const (
	KeyFraudScore           = "fraud_score"
	KeyHistoricalRisk       = "historical_risk"
	KeyRegulatedTransaction = "regulated_transaction"
	KeyCustomerTenureDays   = "customer_tenure_days"
	KeyTransactions24h      = "transactions_24h"
	KeyAmount               = "amount"
)

// Facts is the typed view of a fraud alert.
type Facts struct {
	FraudScore           signal.Fact[float64]
	HistoricalRisk       signal.Fact[float64]
	RegulatedTransaction signal.Fact[bool]
	CustomerTenureDays   signal.Fact[float64]
	Transactions24h      signal.Fact[float64]
	Amount               signal.Fact[float64]
}

// ParseFacts reads the known keys from raw. It never fails; absent and
// malformed values are recorded on each Fact.
func ParseFacts(raw map[string]any) Facts {
	return Facts{
		FraudScore:           signal.Number(raw, KeyFraudScore),
		HistoricalRisk:       signal.Number(raw, KeyHistoricalRisk),
		RegulatedTransaction: signal.Bool(raw, KeyRegulatedTransaction),
		CustomerTenureDays:   signal.Number(raw, KeyCustomerTenureDays),
		Transactions24h:      signal.Number(raw, KeyTransactions24h),
		Amount:               signal.Number(raw, KeyAmount),
	}
}
