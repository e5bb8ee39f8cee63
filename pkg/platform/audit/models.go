// Package audit defines the compliance-facing audit log attached to every
// case decision, and the append-only stores that keep it.
package audit

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"

	"riskflow/pkg/domain"
)

// Action names recorded on audit entries.
const (
	ActionDecisionMade = "decision_made"
)

// Origin records who submitted a case and from where.
type Origin struct {
	Subject   string `json:"subject,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Browser   string `json:"browser,omitempty"`
	OS        string `json:"os,omitempty"`
}

// Entry is the write-once audit record of one case decision: the original
// inputs, the full analysis, and the outcome. Entries are appended, never
// updated.
type Entry struct {
	Action       string             `json:"action"`
	CaseID       domain.CaseID      `json:"case_id"`
	Workflow     string             `json:"workflow"`
	ExecutionID  domain.ExecutionID `json:"execution_id"`
	Decision     string             `json:"decision"`
	Reason       string             `json:"reason"`
	Status       string             `json:"status"`
	RiskScore    int                `json:"risk_score"`
	Confidence   *float64           `json:"confidence"`
	Facts        map[string]any     `json:"facts"`
	Context      map[string]any     `json:"context,omitempty"`
	Analysis     any                `json:"analysis"`
	InputsDigest string             `json:"inputs_digest"`
	Origin       Origin             `json:"origin"`
	RecordedAt   time.Time          `json:"recorded_at"`
}

// Store appends audit entries. Appending the same execution twice must not
// create a second record.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByCase(ctx context.Context, caseID domain.CaseID) ([]Entry, error)
}

// Digest returns a hex BLAKE2b-256 digest over the canonical JSON encoding of
// a case's facts and context. encoding/json sorts map keys, so equal inputs
// always hash equally.
func Digest(facts, caseContext map[string]any) (string, error) {
	canonical, err := json.Marshal(struct {
		Facts   map[string]any `json:"facts"`
		Context map[string]any `json:"context"`
	}{Facts: facts, Context: caseContext})
	if err != nil {
		return "", fmt.Errorf("encode audit inputs: %w", err)
	}
	sum := blake2b.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
