package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, DedupeAndTrim([]string{"  k1:9092 ", "k2:9092", "k1:9092", "", "  "}))
	assert.Empty(t, DedupeAndTrim(nil))
}

func TestSplitList(t *testing.T) {
	tests := map[string][]string{
		"":               nil,
		"  ":             nil,
		"a":              {"a"},
		"a, b,,a , c":    {"a", "b", "c"},
		"redpanda:9092,": {"redpanda:9092"},
	}
	for in, want := range tests {
		assert.Equal(t, want, SplitList(in), "input %q", in)
	}
}
