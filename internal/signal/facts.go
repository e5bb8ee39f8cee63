package signal

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FactState records what a reader found under a key.
type FactState int

const (
	FactAbsent FactState = iota
	FactMalformed
	FactPresent
)

// Fact is one typed value read from a case's loosely typed fact map.
// Raw keeps the original value for trace input snapshots.
type Fact[T any] struct {
	Value T
	State FactState
	Raw   any
}

// Present reports whether the fact was supplied and well-formed.
func (f Fact[T]) Present() bool { return f.State == FactPresent }

// Usable is Present for required facts and "not malformed" for optional ones.
func (f Fact[T]) Usable(required bool) bool {
	if required {
		return f.State == FactPresent
	}
	return f.State != FactMalformed
}

// Snapshot renders the raw value for an evaluator's input record.
func (f Fact[T]) Snapshot() any {
	if f.State == FactAbsent {
		return nil
	}
	return f.Raw
}

// Number reads a numeric fact. JSON numbers, Go numeric types and numeric
// strings are accepted; NaN and infinities are malformed.
func Number(facts map[string]any, key string) Fact[float64] {
	raw, ok := facts[key]
	if !ok || raw == nil {
		return Fact[float64]{State: FactAbsent}
	}
	v, ok := toFloat(raw)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return Fact[float64]{State: FactMalformed, Raw: snapshotValue(raw)}
	}
	return Fact[float64]{Value: v, State: FactPresent, Raw: raw}
}

// NonNegative marks a present negative value malformed. Counts and scores
// read through it cannot pull a total below its floor.
func NonNegative(f Fact[float64]) Fact[float64] {
	if f.State == FactPresent && f.Value < 0 {
		return Fact[float64]{State: FactMalformed, Raw: f.Raw}
	}
	return f
}

// Bool reads a boolean fact. Booleans and "true"/"false" style strings are accepted.
func Bool(facts map[string]any, key string) Fact[bool] {
	raw, ok := facts[key]
	if !ok || raw == nil {
		return Fact[bool]{State: FactAbsent}
	}
	switch v := raw.(type) {
	case bool:
		return Fact[bool]{Value: v, State: FactPresent, Raw: raw}
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return Fact[bool]{State: FactMalformed, Raw: raw}
		}
		return Fact[bool]{Value: b, State: FactPresent, Raw: raw}
	default:
		return Fact[bool]{State: FactMalformed, Raw: raw}
	}
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// SanitizeInputs copies a fact map into a form encoding/json accepts:
// non-finite floats become their string rendering, nested maps and slices
// are copied the same way.
func SanitizeInputs(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = snapshotValue(v)
	}
	return out
}

func snapshotValue(v any) any {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Sprint(t)
		}
	case float32:
		if math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
			return fmt.Sprint(t)
		}
	case map[string]any:
		return SanitizeInputs(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = snapshotValue(e)
		}
		return out
	}
	return v
}
