// Package stringutil provides name handling shared by roster loading, summaries and views.
package stringutil

import (
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// IsNumeric checks if a string contains only digits.
// Returns false for empty strings.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NormalizeName trims a display name, collapses inner whitespace and converts it to NFC,
// so names typed on different keyboards compare equal.
//
// Example:
//
//	NormalizeName("  01   김가령 ") returns "01 김가령"
func NormalizeName(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// SplitRollNumber splits a roll-number prefix from a display name.
// Returns an empty roll number when the name has no numeric prefix.
//
// Example:
//
//	SplitRollNumber("01 김가령") returns ("01", "김가령")
//	SplitRollNumber("김가령") returns ("", "김가령")
func SplitRollNumber(name string) (roll, rest string) {
	head, tail, ok := strings.Cut(name, " ")
	if !ok || !IsNumeric(head) {
		return "", name
	}
	return head, strings.TrimSpace(tail)
}

// SortNames returns a sorted copy of names using Korean collation with numeric
// ordering, so "2 이서연" sorts before "10 김가령".
func SortNames(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	if len(out) < 2 {
		return out
	}
	collate.New(language.Korean, collate.Numeric).SortStrings(out)
	return out
}
