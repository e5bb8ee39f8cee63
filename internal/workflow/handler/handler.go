package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"riskflow/internal/trace"
	"riskflow/internal/workflow"
	"riskflow/pkg/domain"
	dErrors "riskflow/pkg/domain-errors"
	"riskflow/pkg/platform/audit"
	"riskflow/pkg/platform/httputil"
	"riskflow/pkg/requestcontext"
)

// Submitter runs cases through named workflows.
type Submitter interface {
	Submit(ctx context.Context, workflow string, c workflow.Case) (*workflow.Decision, error)
	Names() []string
}

// TraceReader reads back persisted trace payloads.
type TraceReader interface {
	Read(ctx context.Context, ns trace.Namespace, id domain.ExecutionID) ([]byte, error)
}

// AuditLister lists the audit trail for a case.
type AuditLister interface {
	List(ctx context.Context, caseID domain.CaseID) ([]audit.Entry, error)
}

// Handler wires workflow, trace and audit endpoints.
type Handler struct {
	workflows Submitter
	traces    TraceReader
	audit     AuditLister
	logger    *slog.Logger
}

// New constructs a workflow handler with its dependencies.
func New(workflows Submitter, traces TraceReader, audit AuditLister, logger *slog.Logger) *Handler {
	return &Handler{
		workflows: workflows,
		traces:    traces,
		audit:     audit,
		logger:    logger,
	}
}

// Register mounts the endpoints on the router. submitMW wraps only the case
// submission route.
func (h *Handler) Register(r chi.Router, submitMW ...func(http.Handler) http.Handler) {
	r.Get("/workflows", h.HandleListWorkflows)
	r.With(submitMW...).Post("/workflows/{workflow}/cases", h.HandleSubmitCase)
	r.Get("/traces/{namespace}/{executionID}", h.HandleGetTrace)
	r.Get("/cases/{caseID}/audit", h.HandleListAudit)
}

// HandleListWorkflows handles GET /workflows.
func (h *Handler) HandleListWorkflows(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, WorkflowsResponse{Workflows: h.workflows.Names()})
}

// HandleSubmitCase handles POST /workflows/{workflow}/cases.
func (h *Handler) HandleSubmitCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()
	name := chi.URLParam(r, "workflow")

	req, ok := httputil.DecodeAndPrepare[SubmitCaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	decision, err := h.workflows.Submit(ctx, name, req.ToCase())
	if err != nil {
		h.logger.WarnContext(ctx, "case submission failed",
			"request_id", requestID,
			"workflow", name,
			"case_id", req.CaseID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "case decided",
		"request_id", requestID,
		"workflow", name,
		"case_id", decision.CaseID,
		"execution_id", decision.ExecutionID,
		"decision", decision.Decision,
		"status", decision.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, decision)
}

// HandleGetTrace handles GET /traces/{namespace}/{executionID}. The stored
// payload is returned byte for byte.
func (h *Handler) HandleGetTrace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ns, err := trace.ParseNamespace(chi.URLParam(r, "namespace"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	id, err := domain.ParseExecutionID(chi.URLParam(r, "executionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	payload, err := h.traces.Read(ctx, ns, id)
	if err != nil {
		h.logger.DebugContext(ctx, "trace read failed",
			"request_id", requestcontext.RequestID(ctx),
			"namespace", ns,
			"execution_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteRaw(w, http.StatusOK, payload)
}

// HandleListAudit handles GET /cases/{caseID}/audit.
func (h *Handler) HandleListAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caseID, err := domain.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.audit.List(ctx, caseID)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"case_id", caseID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "audit listing failed"))
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, AuditResponse{CaseID: caseID, Entries: entries})
}
