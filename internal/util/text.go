package util

import (
	"regexp"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

var reSpaces = regexp.MustCompile(`\s+`)

// NormalizeKey folds a string key for case-insensitive comparison: trimmed,
// upper-cased, inner whitespace collapsed.
func NormalizeKey(input string) string {
	s := strings.ToUpper(strings.TrimSpace(input))
	return reSpaces.ReplaceAllString(s, " ")
}

// Similarity returns a normalized edit-distance similarity in [0,1]:
// 1 - levenshtein(a,b)/max(len(a),len(b)), computed on folded keys.
func Similarity(a, b string) float64 {
	a = NormalizeKey(a)
	b = NormalizeKey(b)
	if a == b {
		return 1
	}
	la := len([]rune(a))
	lb := len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}
	max := la
	if lb > max {
		max = lb
	}
	dist := fuzzy.LevenshteinDistance(a, b)
	if dist >= max {
		return 0
	}
	return 1 - float64(dist)/float64(max)
}

// SplitLocationTokens splits a location like "GAZIABAD/NOIDA" or
// "DELHI NCR" into its parts on slashes and whitespace.
func SplitLocationTokens(location string) []string {
	parts := strings.FieldsFunc(location, func(r rune) bool {
		return r == '/' || r == ' ' || r == '\t'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
