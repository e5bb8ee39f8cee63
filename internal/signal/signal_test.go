package signal

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRiskLevel(t *testing.T) {
	for _, s := range []string{"LOW", "MEDIUM", "HIGH"} {
		l, err := ParseRiskLevel(s)
		require.NoError(t, err)
		assert.Equal(t, s, l.String())
	}

	_, err := ParseRiskLevel("high")
	assert.Error(t, err, "levels are case-sensitive")
	_, err = ParseRiskLevel("")
	assert.Error(t, err)
}

func TestTiered(t *testing.T) {
	assert.Equal(t, High, Tiered(80, 80, 50), "upper bound is inclusive")
	assert.Equal(t, Medium, Tiered(50, 80, 50))
	assert.Equal(t, Low, Tiered(49.99, 80, 50))
}

func TestPseudoAgent(t *testing.T) {
	var a Agent = PseudoAgent("fraud_triage")
	assert.Equal(t, "fraud_triage", a.Name())
}

func TestNumber(t *testing.T) {
	facts := map[string]any{
		"float":     95.0,
		"int":       10,
		"json":      json.Number("42.5"),
		"string":    " 17 ",
		"bad":       "ninety",
		"nan":       math.NaN(),
		"wrongtype": []int{1},
		"null":      nil,
	}

	tests := []struct {
		key   string
		state FactState
		value float64
	}{
		{"float", FactPresent, 95},
		{"int", FactPresent, 10},
		{"json", FactPresent, 42.5},
		{"string", FactPresent, 17},
		{"bad", FactMalformed, 0},
		{"nan", FactMalformed, 0},
		{"wrongtype", FactMalformed, 0},
		{"null", FactAbsent, 0},
		{"missing", FactAbsent, 0},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			f := Number(facts, tt.key)
			assert.Equal(t, tt.state, f.State)
			assert.Equal(t, tt.value, f.Value)
		})
	}
}

func TestNonNegative(t *testing.T) {
	facts := map[string]any{"neg": -3, "zero": 0, "pos": 2}

	assert.Equal(t, FactMalformed, NonNegative(Number(facts, "neg")).State)
	assert.Equal(t, -3, NonNegative(Number(facts, "neg")).Snapshot())
	assert.Equal(t, FactPresent, NonNegative(Number(facts, "zero")).State)
	assert.Equal(t, FactPresent, NonNegative(Number(facts, "pos")).State)
	assert.Equal(t, FactAbsent, NonNegative(Number(facts, "missing")).State)
}

func TestSanitizeInputs(t *testing.T) {
	in := map[string]any{
		"nan":    math.NaN(),
		"inf":    math.Inf(-1),
		"f32":    float32(math.Inf(1)),
		"plain":  12.5,
		"nested": map[string]any{"x": math.NaN()},
		"list":   []any{1, math.Inf(1)},
	}

	out := SanitizeInputs(in)
	assert.Equal(t, "NaN", out["nan"])
	assert.Equal(t, "-Inf", out["inf"])
	assert.Equal(t, "+Inf", out["f32"])
	assert.Equal(t, 12.5, out["plain"])
	assert.Equal(t, map[string]any{"x": "NaN"}, out["nested"])
	assert.Equal(t, []any{1, "+Inf"}, out["list"])
	assert.True(t, math.IsNaN(in["nan"].(float64)), "input is not modified")

	_, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Nil(t, SanitizeInputs(nil))

	assert.Equal(t, "NaN", Number(in, "nan").Snapshot())
}

func TestBool(t *testing.T) {
	facts := map[string]any{"yes": true, "str": "false", "bad": "maybe", "num": 1}

	assert.True(t, Bool(facts, "yes").Value)
	assert.Equal(t, FactPresent, Bool(facts, "str").State)
	assert.False(t, Bool(facts, "str").Value)
	assert.Equal(t, FactMalformed, Bool(facts, "bad").State)
	assert.Equal(t, FactMalformed, Bool(facts, "num").State)
	assert.Equal(t, FactAbsent, Bool(facts, "missing").State)
}

func TestFact_Usable(t *testing.T) {
	absent := Fact[float64]{State: FactAbsent}
	malformed := Fact[float64]{State: FactMalformed, Raw: "x"}
	present := Fact[float64]{State: FactPresent, Value: 1, Raw: 1}

	assert.False(t, absent.Usable(true))
	assert.True(t, absent.Usable(false))
	assert.False(t, malformed.Usable(false))
	assert.True(t, present.Usable(true))

	assert.Nil(t, absent.Snapshot())
	assert.Equal(t, "x", malformed.Snapshot())
}
