// Package strings provides string slice utilities.
package strings

import (
	"strings"
)

// DedupeAndTrimLower lower-cases and trims each element, dropping empties
// and duplicates. Order of first occurrence is preserved.
//
//	DedupeAndTrimLower([]string{"  FOO@x.edu ", "bar@x.edu", "Foo@X.edu"})
//	// Returns: []string{"foo@x.edu", "bar@x.edu"}
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.ToLower(strings.TrimSpace(v))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// Union appends the normalized additions to base, skipping values already
// present. base is assumed normalized.
func Union(base []string, additions []string) []string {
	merged := make([]string, 0, len(base)+len(additions))
	merged = append(merged, base...)
	return DedupeAndTrimLower(append(merged, additions...))
}

// ContainsLower reports whether the normalized needle is in a normalized list.
func ContainsLower(list []string, needle string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return false
	}
	for _, v := range list {
		if v == needle {
			return true
		}
	}
	return false
}
