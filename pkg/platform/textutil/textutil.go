// Package textutil holds the case-folding helpers used by search and name normalization.
package textutil

import "strings"

// Fold lowercases and trims s.
func Fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DedupeFold folds every value, drops empties and keeps the first occurrence
// of each. A nil input stays nil.
func DedupeFold(values []string) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		f := Fold(v)
		if f == "" {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// MatchAny reports whether the folded term occurs in any of fields,
// ignoring case. An empty term matches everything.
func MatchAny(term string, fields ...string) bool {
	term = Fold(term)
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// EqualFold compares two strings after trimming, ignoring case.
func EqualFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
