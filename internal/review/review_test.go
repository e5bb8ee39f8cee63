package review

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskflow/internal/signal"
	"riskflow/pkg/domain"
)

func TestLogRequester(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	r := NewLogRequester(logger)

	err := r.RequestReview(context.Background(), Request{
		CaseID:    "case-7",
		Workflow:  "fraud_triage",
		RiskScore: 3,
		Reason:    "High fraud risk detected",
	})
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "human review requested", line["msg"])
	assert.Equal(t, "case-7", line["case_id"])
	assert.Equal(t, "fraud_triage", line["workflow"])
}

func TestInbox(t *testing.T) {
	inbox := NewInbox()

	var wg sync.WaitGroup
	for _, id := range []domain.CaseID{"a", "b", "a"} {
		wg.Go(func() {
			_ = inbox.RequestReview(context.Background(), Request{CaseID: id})
		})
	}
	wg.Wait()

	assert.Len(t, inbox.Requests(), 3)
	assert.Len(t, inbox.ForCase("a"), 2)
	assert.Empty(t, inbox.ForCase("c"))
}

func TestRequestEncode(t *testing.T) {
	req := Request{
		CaseID:   "case-1",
		Workflow: "vendor_onboarding",
		Signals: []signal.Signal{
			{Agent: "base_risk_agent", Type: "base_risk", Level: signal.Medium, Confidence: 1},
		},
	}
	payload, err := req.Encode()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "case-1", decoded["case_id"])
	assert.Len(t, decoded["signals"], 1)
}
