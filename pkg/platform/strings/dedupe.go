// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{"  foo ", "bar", "foo", "", "  "})
//	// Returns: []string{"foo", "bar"}
func DedupeAndTrim(values []string) []string {
	return dedupe(values, func(s string) string { return strings.TrimSpace(s) })
}

// DedupeAndTrimUpper is like DedupeAndTrim but also uppercases each element.
// Used for symbolic identifiers like approval stage names.
//
// Example:
//
//	DedupeAndTrimUpper([]string{"  supervisor ", "hr", "Supervisor"})
//	// Returns: []string{"SUPERVISOR", "HR"}
func DedupeAndTrimUpper(values []string) []string {
	return dedupe(values, func(s string) string { return strings.ToUpper(strings.TrimSpace(s)) })
}

func dedupe(values []string, normalize func(string) string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		normalized := normalize(v)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; !ok {
			seen[normalized] = struct{}{}
			result = append(result, normalized)
		}
	}

	return result
}
