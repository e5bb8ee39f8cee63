package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"riskflow/pkg/domain"
	audit "riskflow/pkg/platform/audit"
)

// Schema creates the audit_log table. One row per workflow execution.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_log (
	execution_id  UUID PRIMARY KEY,
	case_id       TEXT NOT NULL,
	workflow      TEXT NOT NULL,
	action        TEXT NOT NULL,
	decision      TEXT NOT NULL,
	reason        TEXT NOT NULL,
	status        TEXT NOT NULL,
	risk_score    INTEGER NOT NULL,
	confidence    DOUBLE PRECISION,
	facts         JSONB NOT NULL,
	context       JSONB,
	analysis      JSONB NOT NULL,
	inputs_digest TEXT NOT NULL,
	origin        JSONB NOT NULL,
	recorded_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_log_case_idx ON audit_log (case_id, recorded_at);
`

// Store implements audit.Store on a database/sql handle.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the audit table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

// Append inserts entry. Re-appending an execution is ignored via ON CONFLICT DO NOTHING.
func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	facts, err := json.Marshal(entry.Facts)
	if err != nil {
		return fmt.Errorf("marshal audit facts: %w", err)
	}
	var caseContext []byte
	if entry.Context != nil {
		if caseContext, err = json.Marshal(entry.Context); err != nil {
			return fmt.Errorf("marshal audit context: %w", err)
		}
	}
	analysis, err := json.Marshal(entry.Analysis)
	if err != nil {
		return fmt.Errorf("marshal audit analysis: %w", err)
	}
	origin, err := json.Marshal(entry.Origin)
	if err != nil {
		return fmt.Errorf("marshal audit origin: %w", err)
	}

	query := `
		INSERT INTO audit_log (
			execution_id, case_id, workflow, action, decision, reason, status,
			risk_score, confidence, facts, context, analysis, inputs_digest,
			origin, recorded_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (execution_id) DO NOTHING
	`
	_, err = s.db.ExecContext(ctx, query,
		entry.ExecutionID.String(),
		string(entry.CaseID),
		entry.Workflow,
		entry.Action,
		entry.Decision,
		entry.Reason,
		entry.Status,
		entry.RiskScore,
		entry.Confidence,
		facts,
		caseContext,
		analysis,
		entry.InputsDigest,
		origin,
		entry.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListByCase returns a case's entries oldest first.
func (s *Store) ListByCase(ctx context.Context, caseID domain.CaseID) ([]audit.Entry, error) {
	query := `
		SELECT execution_id, case_id, workflow, action, decision, reason, status,
			   risk_score, confidence, facts, context, analysis, inputs_digest,
			   origin, recorded_at
		FROM audit_log
		WHERE case_id = $1
		ORDER BY recorded_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, string(caseID))
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]audit.Entry, error) {
	var entries []audit.Entry

	for rows.Next() {
		var (
			entry       audit.Entry
			executionID string
			caseID      string
			confidence  sql.NullFloat64
			facts       []byte
			caseContext []byte
			analysis    []byte
			origin      []byte
		)
		err := rows.Scan(
			&executionID,
			&caseID,
			&entry.Workflow,
			&entry.Action,
			&entry.Decision,
			&entry.Reason,
			&entry.Status,
			&entry.RiskScore,
			&confidence,
			&facts,
			&caseContext,
			&analysis,
			&entry.InputsDigest,
			&origin,
			&entry.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		if entry.ExecutionID, err = domain.ParseExecutionID(executionID); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.CaseID = domain.CaseID(caseID)
		if confidence.Valid {
			c := confidence.Float64
			entry.Confidence = &c
		}
		if err := json.Unmarshal(facts, &entry.Facts); err != nil {
			return nil, fmt.Errorf("decode audit facts: %w", err)
		}
		if len(caseContext) > 0 {
			if err := json.Unmarshal(caseContext, &entry.Context); err != nil {
				return nil, fmt.Errorf("decode audit context: %w", err)
			}
		}
		var decoded map[string]any
		if err := json.Unmarshal(analysis, &decoded); err != nil {
			return nil, fmt.Errorf("decode audit analysis: %w", err)
		}
		entry.Analysis = decoded
		if err := json.Unmarshal(origin, &entry.Origin); err != nil {
			return nil, fmt.Errorf("decode audit origin: %w", err)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
