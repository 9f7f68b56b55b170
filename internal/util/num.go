package util

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	reDigits = regexp.MustCompile(`\d+`)
	reAmount = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// ParsePrice parses a wide-table price cell into an integer price. Thousands
// separators (both 99,650 and lakh-style 1,23,450 grouping) and surrounding
// whitespace are stripped; decimal points are tolerated and rounded. Returns
// false for anything non-numeric.
func ParsePrice(cell string) (int, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	compact := strings.ReplaceAll(s, " ", "")
	compact = strings.ReplaceAll(compact, ",", "")
	parsed, err := strconv.ParseFloat(compact, 64)
	if err != nil {
		return 0, false
	}
	return int(math.Round(parsed)), true
}

// ParseAmount parses a freight amount out of a cell that may carry currency
// and unit decoration ("Rs. 928.72/MT"). Thousands separators are stripped,
// then the first decimal number wins. Returns false when nothing numeric
// remains.
func ParseAmount(cell string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if s == "" {
		return 0, false
	}
	m := reAmount.FindString(s)
	if m == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

// ParseDistanceKM parses a distance cell best-effort, 0 on failure.
func ParseDistanceKM(cell string) float64 {
	amount, ok := ParseAmount(cell)
	if !ok || amount < 0 {
		return 0
	}
	return amount
}

// ParseTransitDays parses a transit-time cell best-effort, 0 on failure.
// Cells like "3-4 days" resolve to the first number found.
func ParseTransitDays(cell string) int {
	m := reDigits.FindString(cell)
	if m == "" {
		return 0
	}
	parsed, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return parsed
}
