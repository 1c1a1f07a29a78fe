package inmemsheets

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/volonteri/evidencija/core"
)

// Store is a core.SheetStore held in memory. It backs tests and debug runs without credentials.
type Store struct {
	mutex  sync.RWMutex
	sheets map[string][][]string
	err    error
}

var _ core.SheetStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{sheets: make(map[string][][]string)}
}

// Seed appends rows to the sheet named title, creating it when needed.
func (s *Store) Seed(title string, rows ...[]string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.sheets[title] = append(s.sheets[title], copyRows(rows)...)
}

// Rows returns a copy of every row of the sheet named title.
func (s *Store) Rows(title string) [][]string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return copyRows(s.sheets[title])
}

// HasSheet reports whether the sheet named title exists.
func (s *Store) HasSheet(title string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	_, ok := s.sheets[title]
	return ok
}

// Titles returns the sheet titles in alphabetical order.
func (s *Store) Titles() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	titles := make([]string, 0, len(s.sheets))
	for t := range s.sheets {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	return titles
}

// SetError makes every following call fail with err. A nil err restores the store.
func (s *Store) SetError(err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.err = err
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.err
}

func (s *Store) ReadRange(ctx context.Context, rng string) ([][]string, error) {
	r, err := core.ParseRange(rng)
	if err != nil {
		return nil, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if err = s.check(ctx); err != nil {
		return nil, err
	}
	rows, ok := s.sheets[r.Sheet]
	if !ok {
		return nil, errors.Errorf("unable to parse range: %s", rng)
	}

	out := make([][]string, 0)
	for i := r.FromRow - 1; i < len(rows); i++ {
		if r.ToRow != 0 && i >= r.ToRow {
			break
		}
		out = append(out, trimRow(window(rows[i], r)))
	}
	// trailing empty rows are not returned
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (s *Store) AppendRows(ctx context.Context, rng string, rows [][]string) error {
	r, err := core.ParseRange(rng)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err = s.check(ctx); err != nil {
		return err
	}
	sheet, ok := s.sheets[r.Sheet]
	if !ok {
		return errors.Errorf("unable to parse range: %s", rng)
	}

	// drop trailing empty rows so the new rows follow the last one with data
	last := len(sheet)
	for last > 0 && len(trimRow(sheet[last-1])) == 0 {
		last--
	}
	sheet = sheet[:last]

	for _, row := range rows {
		newRow := make([]string, r.FromCol-1, r.FromCol-1+len(row))
		newRow = append(newRow, row...)
		sheet = append(sheet, newRow)
	}
	s.sheets[r.Sheet] = sheet
	return nil
}

func (s *Store) EnsureSheet(ctx context.Context, title string, header []string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.check(ctx); err != nil {
		return false, err
	}
	if sheet, ok := s.sheets[title]; ok {
		if len(header) > 0 && (len(sheet) == 0 || len(trimRow(sheet[0])) == 0) {
			if len(sheet) == 0 {
				sheet = append(sheet, nil)
			}
			sheet[0] = append([]string(nil), header...)
			s.sheets[title] = sheet
		}
		return false, nil
	}
	s.sheets[title] = [][]string{append([]string(nil), header...)}
	return true, nil
}

// window cuts the columns of r out of row.
func window(row []string, r core.Range) []string {
	from := r.FromCol - 1
	if from >= len(row) {
		return nil
	}
	to := len(row)
	if r.ToCol != 0 && r.ToCol < to {
		to = r.ToCol
	}
	return append([]string(nil), row[from:to]...)
}

// trimRow drops trailing empty cells.
func trimRow(row []string) []string {
	end := len(row)
	for end > 0 && row[end-1] == "" {
		end--
	}
	return row[:end:end]
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, append([]string(nil), row...))
	}
	return out
}
