package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "riskflow/pkg/domain-errors"
)

// TestParseCaseID_Invariants validates the parsing invariant:
// "case ids are non-empty, bounded and restricted to a safe alphabet"
func TestParseCaseID_Invariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    CaseID
		wantErr bool
	}{
		{"empty string", "", "", true},
		{"whitespace only", "   ", "", true},
		{"path traversal", "../../etc/passwd", "", true},
		{"null byte", "case\x00-1", "", true},
		{"oversized", strings.Repeat("a", MaxCaseIDLength+1), "", true},
		{"unicode zero-width space", "case\u200B1", "", true},
		{"simple", "case-1", "case-1", false},
		{"trims surrounding whitespace", "  TXN_42  ", "TXN_42", false},
		{"namespaced", "vendor:acme.corp", "vendor:acme.corp", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCaseID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseExecutionID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseExecutionID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseExecutionID(uuid.Nil.String())
		require.Error(t, err)
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseExecutionID("not-a-uuid")
		require.Error(t, err)
	})

	t.Run("round-trips minted ids", func(t *testing.T) {
		minted := NewExecutionID()
		parsed, err := ParseExecutionID(minted.String())
		require.NoError(t, err)
		assert.Equal(t, minted, parsed)
		assert.False(t, parsed.IsNil())
	})
}

func TestNewExecutionID_Unique(t *testing.T) {
	seen := make(map[ExecutionID]struct{}, 1000)
	for range 1000 {
		id := NewExecutionID()
		_, dup := seen[id]
		require.False(t, dup, "execution ids must never collide")
		seen[id] = struct{}{}
	}
}

func TestExecutionID_JSON(t *testing.T) {
	id := NewExecutionID()
	b, err := json.Marshal(struct {
		ID ExecutionID `json:"id"`
	}{ID: id})
	require.NoError(t, err)
	assert.Contains(t, string(b), id.String())

	var out struct {
		ID ExecutionID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, id, out.ID)
}
