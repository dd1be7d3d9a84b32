// Package strings provides list normalization helpers for request parsing.
package strings

import (
	"strings"
)

// NormalizeList trims and lowercases every element, dropping empties and
// repeats. Order of first occurrence is preserved.
//
// Example:
//
//	NormalizeList([]string{" DNA ", "fingerprint", "dna", ""})
//	// Returns: []string{"dna", "fingerprint"}
func NormalizeList(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		n := strings.ToLower(strings.TrimSpace(v))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		result = append(result, n)
	}
	return result
}

// ParseList normalizes values and converts each with parse, stopping at the
// first error.
func ParseList[T any](values []string, parse func(string) (T, error)) ([]T, error) {
	normalized := NormalizeList(values)
	if len(normalized) == 0 {
		return nil, nil
	}
	out := make([]T, 0, len(normalized))
	for _, v := range normalized {
		parsed, err := parse(v)
		if err != nil {
			return nil, err
		}
		out = append(out, parsed)
	}
	return out, nil
}
