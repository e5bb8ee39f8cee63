package handler

import (
	"riskflow/pkg/domain"
	"riskflow/pkg/platform/audit"
)

// WorkflowsResponse is the HTTP response for GET /workflows.
type WorkflowsResponse struct {
	Workflows []string `json:"workflows"`
}

// AuditResponse is the HTTP response for GET /cases/{caseID}/audit.
type AuditResponse struct {
	CaseID  domain.CaseID `json:"case_id"`
	Entries []audit.Entry `json:"entries"`
}
