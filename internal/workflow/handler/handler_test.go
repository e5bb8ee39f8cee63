package handler_test

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskflow/internal/review"
	tracememory "riskflow/internal/trace/store/memory"
	"riskflow/internal/workflow"
	"riskflow/internal/workflow/fraud"
	"riskflow/internal/workflow/handler"
	"riskflow/internal/workflow/vendor"
	"riskflow/pkg/platform/audit/publisher"
	auditmemory "riskflow/pkg/platform/audit/store/memory"
	"riskflow/pkg/testutil"
)

type fixture struct {
	router http.Handler
	traces *tracememory.InMemoryStore
	inbox  *review.Inbox
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	traces := tracememory.NewInMemoryStore()
	inbox := review.NewInbox()

	pub, err := publisher.New(auditmemory.NewInMemoryStore())
	require.NoError(t, err)
	fraudRun, err := workflow.New(fraud.Definition(nil), traces, pub, inbox, workflow.WithLogger(logger))
	require.NoError(t, err)
	vendorRun, err := workflow.New(vendor.Definition(nil), traces, pub, inbox, workflow.WithLogger(logger))
	require.NoError(t, err)
	registry, err := workflow.NewRegistry(fraudRun, vendorRun)
	require.NoError(t, err)

	r := chi.NewRouter()
	handler.New(registry, traces, pub, logger).Register(r)
	return &fixture{router: r, traces: traces, inbox: inbox}
}

func TestSubmitCase(t *testing.T) {
	testutil.Given(t, "a registered fraud workflow", func(t *testing.T) {
		f := newFixture(t)

		testutil.When(t, "a high risk alert is submitted", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/workflows/fraud_triage/cases",
				map[string]any{
					"case_id": "alert-001",
					"facts":   map[string]any{"fraud_score": 92, "historical_risk": 88, "regulated_transaction": true},
				})
			req = testutil.WithRequestID(testutil.WithSubject(req, "svc-intake"), "req-77")
			rr := testutil.DoRequest(f.router, req)

			testutil.Then(t, "it is parked for human review", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				d := testutil.UnmarshalResponse[workflow.Decision](t, rr)
				assert.Equal(t, workflow.LabelPending, d.Decision)
				assert.Equal(t, workflow.StatusPendingHumanReview, d.Status)
				assert.True(t, d.AuditPersisted)
				assert.Len(t, f.inbox.ForCase("alert-001"), 1)
			})

			testutil.And(t, "the audit entry records who submitted it", func(t *testing.T) {
				rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/cases/alert-001/audit"))
				resp := testutil.UnmarshalResponse[handler.AuditResponse](t, rr)
				require.Len(t, resp.Entries, 1)
				assert.Equal(t, "svc-intake", resp.Entries[0].Origin.Subject)
				assert.Equal(t, "req-77", resp.Entries[0].Origin.RequestID)
			})
		})

		testutil.When(t, "the workflow is unknown", func(t *testing.T) {
			rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/workflows/loan_review/cases",
				map[string]any{"case_id": "alert-002"}))

			testutil.Then(t, "it is not found", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
			})
		})

		testutil.When(t, "the body is not json", func(t *testing.T) {
			rr := testutil.DoRequest(f.router, testutil.NewRequestWithBody(t, http.MethodPost, "/workflows/fraud_triage/cases", "{"))

			testutil.Then(t, "it is a bad request", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
			})
		})

		testutil.When(t, "the case id is missing", func(t *testing.T) {
			rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/workflows/fraud_triage/cases",
				map[string]any{"facts": map[string]any{"fraud_score": 10}}))

			testutil.Then(t, "it fails validation", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
			})
		})

		testutil.When(t, "the case id has invalid characters", func(t *testing.T) {
			rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/workflows/fraud_triage/cases",
				map[string]any{"case_id": "alert 003; drop"}))

			testutil.Then(t, "it fails validation and nothing is written", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
			})
		})
	})
}

func TestTraceAndAuditReadBack(t *testing.T) {
	f := newFixture(t)
	rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/workflows/vendor_onboarding/cases",
		map[string]any{
			"case_id": "vendor-42",
			"facts":   map[string]any{"base_risk_score": 20, "regulated": false, "fraud_signals": 0},
		}))
	testutil.AssertStatusOK(t, rr)
	d := testutil.UnmarshalResponse[workflow.Decision](t, rr)
	assert.Equal(t, workflow.LabelApprove, d.Decision)

	t.Run("workflow trace is returned verbatim", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/traces/workflows/"+d.ExecutionID.String()))
		testutil.AssertStatusOK(t, rr)

		stored, err := f.traces.Read(t.Context(), "workflows", d.ExecutionID)
		require.NoError(t, err)
		assert.Equal(t, stored, testutil.ReadBody(t, rr))
	})

	t.Run("unknown namespace is not found", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/traces/sessions/"+d.ExecutionID.String()))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	t.Run("malformed execution id is rejected", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/traces/workflows/not-a-uuid"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})

	t.Run("audit trail lists the decision", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/cases/vendor-42/audit"))
		testutil.AssertStatusOK(t, rr)
		resp := testutil.UnmarshalResponse[handler.AuditResponse](t, rr)
		require.Len(t, resp.Entries, 1)
		assert.Equal(t, "APPROVE", resp.Entries[0].Decision)
		assert.Equal(t, d.ExecutionID, resp.Entries[0].ExecutionID)
	})

	t.Run("case without history has an empty trail", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/cases/vendor-43/audit"))
		testutil.AssertStatusOK(t, rr)
		assert.JSONEq(t, `{"case_id":"vendor-43","entries":[]}`, rr.Body.String())
	})
}

func TestListWorkflows(t *testing.T) {
	f := newFixture(t)
	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/workflows"))
	testutil.AssertStatusOK(t, rr)
	resp := testutil.UnmarshalResponse[handler.WorkflowsResponse](t, rr)
	assert.Equal(t, []string{"fraud_triage", "vendor_onboarding"}, resp.Workflows)
}
