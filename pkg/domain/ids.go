package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "riskflow/pkg/domain-errors"
)

// MaxCaseIDLength bounds caller-supplied case identifiers.
const MaxCaseIDLength = 128

// CaseID identifies a submitted case. It is caller-supplied, so it is parsed
// at the trust boundary and never constructed from raw strings elsewhere.
type CaseID string

// ParseCaseID validates a caller-supplied case identifier.
// Accepted characters: ASCII letters, digits, '-', '_', '.', ':'.
func ParseCaseID(s string) (CaseID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "case id is required")
	}
	if len(s) > MaxCaseIDLength {
		return "", dErrors.New(dErrors.CodeValidation, "case id is too long")
	}
	for _, r := range s {
		if !isCaseIDRune(r) {
			return "", dErrors.New(dErrors.CodeValidation, "case id contains invalid characters")
		}
	}
	return CaseID(s), nil
}

func isCaseIDRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-', r == '_', r == '.', r == ':':
		return true
	}
	return false
}

func (c CaseID) String() string { return string(c) }

// ExecutionID identifies one workflow or evaluator execution.
type ExecutionID uuid.UUID

// NewExecutionID mints a random (v4) execution identifier.
func NewExecutionID() ExecutionID {
	return ExecutionID(uuid.New())
}

// ParseExecutionID validates an execution identifier from an untrusted source.
func ParseExecutionID(s string) (ExecutionID, error) {
	if s == "" {
		return ExecutionID{}, dErrors.New(dErrors.CodeInvalidInput, "execution id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return ExecutionID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid execution id")
	}
	if u == uuid.Nil {
		return ExecutionID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid execution id")
	}
	return ExecutionID(u), nil
}

func (e ExecutionID) String() string { return uuid.UUID(e).String() }

// IsNil reports whether the identifier was never minted.
func (e ExecutionID) IsNil() bool { return uuid.UUID(e) == uuid.Nil }

// MarshalText renders the identifier in canonical UUID form.
func (e ExecutionID) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText parses a canonical UUID.
func (e *ExecutionID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*e = ExecutionID(u)
	return nil
}
