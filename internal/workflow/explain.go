package workflow

import (
	"fmt"
	"strings"

	"riskflow/internal/signal"
)

// Explain renders the human-readable summary of a decision: the outcome, the
// additive risk score, then one "agent → risk" line per signal in invocation
// order.
func Explain(decision Label, status Status, riskScore int, signals []signal.Signal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Decision: %s (%s)\n", decision, status)
	fmt.Fprintf(&b, "Risk score: %d\n", riskScore)
	b.WriteString("Signals:")
	for _, s := range signals {
		fmt.Fprintf(&b, "\n- %s → %s", s.Agent, s.Level)
		if s.Flag != "" {
			fmt.Fprintf(&b, " (%s)", s.Flag)
		}
		if s.Defaulted {
			b.WriteString(" [defaulted]")
		}
	}
	return b.String()
}
