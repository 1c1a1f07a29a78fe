package core

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// SheetStore is a remote spreadsheet addressed by A1 ranges ("Sheet!A2:E").
type SheetStore interface {
	// ReadRange returns the rows of rng. Trailing empty rows and cells may be omitted.
	ReadRange(ctx context.Context, rng string) ([][]string, error)
	// AppendRows appends rows after the last non-empty row of rng, values stored as entered.
	AppendRows(ctx context.Context, rng string, rows [][]string) error
	// EnsureSheet creates the sheet named title with a header row.
	// created is false when the sheet already exists. An existing sheet whose first row is
	// empty gets the header; any other first row is left untouched.
	EnsureSheet(ctx context.Context, title string, header []string) (created bool, err error)
}

// Range is a parsed A1 range. Columns and rows are 1-based; a zero ToCol or ToRow is unbounded.
type Range struct {
	Sheet   string
	FromCol int
	FromRow int
	ToCol   int
	ToRow   int
}

// ParseRange parses "Sheet", "Sheet!A2:E", "Sheet!A:E" and "'My Sheet'!B3".
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	var rng Range

	cells := ""
	if i := strings.LastIndex(s, "!"); i >= 0 {
		rng.Sheet, cells = s[:i], s[i+1:]
	} else {
		rng.Sheet = s
	}
	if len(rng.Sheet) > 1 && strings.HasPrefix(rng.Sheet, "'") && strings.HasSuffix(rng.Sheet, "'") {
		rng.Sheet = strings.ReplaceAll(rng.Sheet[1:len(rng.Sheet)-1], "''", "'")
	}
	if rng.Sheet == "" {
		return Range{}, errors.Errorf("range %q: missing sheet name", s)
	}

	rng.FromCol, rng.FromRow = 1, 1
	if cells == "" {
		return rng, nil
	}

	from, to := cells, ""
	if i := strings.Index(cells, ":"); i >= 0 {
		from, to = cells[:i], cells[i+1:]
	}
	var err error
	if rng.FromCol, rng.FromRow, err = parseCellRef(from); err != nil {
		return Range{}, errors.Wrapf(err, "range %q", s)
	}
	if rng.FromRow == 0 {
		rng.FromRow = 1
	}
	if to == "" {
		// single cell
		rng.ToCol, rng.ToRow = rng.FromCol, rng.FromRow
		return rng, nil
	}
	if rng.ToCol, rng.ToRow, err = parseCellRef(to); err != nil {
		return Range{}, errors.Wrapf(err, "range %q", s)
	}
	if rng.ToCol < rng.FromCol || (rng.ToRow != 0 && rng.ToRow < rng.FromRow) {
		return Range{}, errors.Errorf("range %q: end before start", s)
	}
	return rng, nil
}

// parseCellRef parses "B3" or a bare column "B" (row 0).
func parseCellRef(ref string) (col, row int, err error) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	if strings.IndexAny(ref, "0123456789") < 0 {
		col, err = excelize.ColumnNameToNumber(ref)
		return col, 0, err
	}
	col, row, err = excelize.CellNameToCoordinates(ref)
	return col, row, err
}

// Width returns the number of columns, 0 when unbounded.
func (r Range) Width() int {
	if r.ToCol == 0 {
		return 0
	}
	return r.ToCol - r.FromCol + 1
}

func (r Range) String() string {
	sheet := r.Sheet
	if strings.ContainsAny(sheet, " '!") {
		sheet = "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}
	if r.FromCol <= 1 && r.FromRow <= 1 && r.ToCol == 0 {
		return sheet
	}
	from, _ := excelize.ColumnNumberToName(r.FromCol)
	from += strconv.Itoa(r.FromRow)
	if r.ToCol == 0 {
		return sheet + "!" + from
	}
	to, _ := excelize.ColumnNumberToName(r.ToCol)
	if r.ToRow != 0 {
		to += strconv.Itoa(r.ToRow)
	}
	return sheet + "!" + from + ":" + to
}
