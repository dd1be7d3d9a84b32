package strings

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeList(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil input", input: nil, expected: nil},
		{name: "only blanks", input: []string{"", "  "}, expected: []string{}},
		{name: "case folded and deduped", input: []string{" DNA ", "fingerprint", "dna", ""}, expected: []string{"dna", "fingerprint"}},
		{name: "order preserved", input: []string{"heartbeat", "dna", "fingerprint"}, expected: []string{"heartbeat", "dna", "fingerprint"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeList(tt.input))
		})
	}
}

func TestParseList(t *testing.T) {
	t.Run("parses every normalized element", func(t *testing.T) {
		out, err := ParseList([]string{" 1", "2", "1 "}, strconv.Atoi)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, out)
	})

	t.Run("empty input yields nil", func(t *testing.T) {
		out, err := ParseList([]string{" "}, strconv.Atoi)
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("first parse error stops", func(t *testing.T) {
		_, err := ParseList([]string{"1", "x"}, strconv.Atoi)
		var numErr *strconv.NumError
		assert.True(t, errors.As(err, &numErr))
	})
}
