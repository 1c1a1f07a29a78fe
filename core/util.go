package core

import "strings"

const bom = "\ufeff"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// CleanCell trims a spreadsheet cell and drops byte-order marks left over by exports.
func CleanCell(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, bom, ""))
}

// Cell returns the cleaned cell at idx, or "" when the row is too short.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return CleanCell(row[idx])
}

// Ordering is a single sort key parsed from an `ordering` query parameter.
type Ordering struct {
	Field     string
	Ascending bool
}

func (ord Ordering) String() string {
	if ord.Ascending {
		return ord.Field
	}
	return "-" + ord.Field
}
