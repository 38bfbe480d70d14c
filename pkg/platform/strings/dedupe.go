// Package strings normalizes user-supplied string lists before they enter
// requests or records.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each element, drops empties, and removes duplicates
// while preserving order. Image URL lists arriving over HTTP go through this
// before validation.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
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
