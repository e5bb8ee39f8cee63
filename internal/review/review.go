// Package review defines the human-review notification port.
//
// A review request is fire-and-forget: the case decision is already final
// (PENDING_HUMAN_REVIEW) when the request is sent, and a delivery failure is
// logged by the caller rather than failing the run.
package review

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"riskflow/internal/signal"
	"riskflow/pkg/domain"
)

// Request asks a human to look at an escalated case.
type Request struct {
	CaseID      domain.CaseID      `json:"case_id"`
	Workflow    string             `json:"workflow"`
	ExecutionID domain.ExecutionID `json:"execution_id"`
	Reason      string             `json:"reason"`
	RiskScore   int                `json:"risk_score"`
	Analysis    any                `json:"analysis"`
	Signals     []signal.Signal    `json:"signals"`
	RequestedAt time.Time          `json:"requested_at"`
}

// Encode serializes the request for transport.
func (r Request) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// Requester delivers review requests.
type Requester interface {
	RequestReview(ctx context.Context, req Request) error
}

// LogRequester writes review requests to the log. It is the default when no
// broker is configured.
type LogRequester struct {
	logger *slog.Logger
}

func NewLogRequester(logger *slog.Logger) *LogRequester {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogRequester{logger: logger}
}

func (l *LogRequester) RequestReview(ctx context.Context, req Request) error {
	l.logger.WarnContext(ctx, "human review requested",
		"case_id", req.CaseID,
		"workflow", req.Workflow,
		"execution_id", req.ExecutionID.String(),
		"risk_score", req.RiskScore,
		"reason", req.Reason,
	)
	return nil
}

// Inbox collects review requests in memory. Used by the demo runner and tests.
type Inbox struct {
	mu       sync.Mutex
	requests []Request
}

func NewInbox() *Inbox {
	return &Inbox{}
}

func (i *Inbox) RequestReview(_ context.Context, req Request) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.requests = append(i.requests, req)
	return nil
}

// Requests returns a copy of everything received so far.
func (i *Inbox) Requests() []Request {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]Request(nil), i.requests...)
}

// ForCase returns the requests received for caseID.
func (i *Inbox) ForCase(caseID domain.CaseID) []Request {
	i.mu.Lock()
	defer i.mu.Unlock()
	var out []Request
	for _, r := range i.requests {
		if r.CaseID == caseID {
			out = append(out, r)
		}
	}
	return out
}
