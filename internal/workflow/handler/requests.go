package handler

import (
	"maps"
	"strings"

	"riskflow/internal/workflow"
	dErrors "riskflow/pkg/domain-errors"
)

const maxFacts = 256

// SubmitCaseRequest is the HTTP request body for POST /workflows/{workflow}/cases.
type SubmitCaseRequest struct {
	CaseID  string         `json:"case_id"`
	Facts   map[string]any `json:"facts"`
	Context map[string]any `json:"context"`
}

// Validate implements httputil.Validatable. Case id rules are enforced by the
// workflow itself; only shape is checked here.
func (r *SubmitCaseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.CaseID = strings.TrimSpace(r.CaseID)
	if r.CaseID == "" {
		return dErrors.New(dErrors.CodeValidation, "case_id is required")
	}
	if len(r.Facts)+len(r.Context) > maxFacts {
		return dErrors.New(dErrors.CodeValidation, "too many facts")
	}
	return nil
}

// ToCase converts the request to a workflow case.
func (r *SubmitCaseRequest) ToCase() workflow.Case {
	return workflow.Case{
		ID:      r.CaseID,
		Facts:   maps.Clone(r.Facts),
		Context: maps.Clone(r.Context),
	}
}
