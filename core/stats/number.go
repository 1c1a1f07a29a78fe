package stats

import (
	"math"
	"strconv"
	"strings"

	"github.com/volonteri/evidencija/core"
)

// ParseNumber parses a locale formatted cell: "1.234,50" -> 1234.5, "87%" -> 87.
// ok is false for empty, malformed and non-finite values.
func ParseNumber(s string) (float64, bool) {
	s = core.CleanCell(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.ReplaceAll(s, "%", "")
	s = strings.Join(strings.Fields(s), "")

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// chartValue is ParseNumber with 0 for missing values.
func chartValue(s string) float64 {
	f, _ := ParseNumber(s)
	return f
}
