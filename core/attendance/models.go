package attendance

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/volonteri/evidencija/core"
)

// NamesSeparator joins volunteer names in the VOLONTERI column.
const NamesSeparator = ", "

// Entry is one recorded session.
type Entry struct {
	Date           string   `json:"date"`
	Location       string   `json:"location"`
	ChildrenCount  string   `json:"childrenCount"`
	VolunteerCount string   `json:"volunteerCount"`
	Volunteers     []string `json:"volunteers"`
}

func (e Entry) row() []string {
	return []string{e.Date, e.Location, e.ChildrenCount, e.VolunteerCount, strings.Join(e.Volunteers, NamesSeparator)}
}

const (
	colDate = iota
	colLocation
	colChildren
	colVolunteerCount
	colVolunteers
)

func fromRow(row []string) Entry {
	return Entry{
		Date:           core.Cell(row, colDate),
		Location:       core.Cell(row, colLocation),
		ChildrenCount:  core.Cell(row, colChildren),
		VolunteerCount: core.Cell(row, colVolunteerCount),
		Volunteers:     SplitNames(core.Cell(row, colVolunteers)),
	}
}

// SplitNames splits a stored VOLONTERI cell, dropping blanks.
func SplitNames(s string) []string {
	names := make([]string, 0)
	for _, n := range strings.Split(s, ",") {
		if n = core.CleanString(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// Count is a head count sent either as a JSON number or a string.
type Count string

func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Count(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return errors.Wrap(err, "count must be a number or a string")
		}
		*c = Count(n.String())
	}
	return nil
}

// NewEntry is the payload of a new session.
type NewEntry struct {
	SelectedDate   string   `json:"selectedDate" validate:"required,sessiondate"`
	Location       string   `json:"location" validate:"required"`
	ChildrenCount  Count    `json:"childrenCount"`
	VolunteerCount Count    `json:"volunteerCount"`
	Selected       []string `json:"selected"`
}

// Validate cleans ne and checks it. On success SelectedDate is dd/mm/yyyy.
func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.SelectedDate = core.CleanString(ne.SelectedDate)
	ne.Location = core.CleanString(ne.Location)
	ne.ChildrenCount = Count(core.CleanString(string(ne.ChildrenCount)))
	ne.VolunteerCount = Count(core.CleanString(string(ne.VolunteerCount)))

	names := make([]string, 0, len(ne.Selected))
	for _, n := range ne.Selected {
		if n = core.CleanString(n); n != "" {
			names = append(names, n)
		}
	}
	ne.Selected = names

	if err := validate.Struct(ne); err != nil {
		return err
	}
	ne.SelectedDate, _ = NormalizeDate(ne.SelectedDate)
	return nil
}

func (ne NewEntry) entry() Entry {
	return Entry{
		Date:           ne.SelectedDate,
		Location:       ne.Location,
		ChildrenCount:  string(ne.ChildrenCount),
		VolunteerCount: string(ne.VolunteerCount),
		Volunteers:     ne.Selected,
	}
}

// QueryFilter applies AND on its non-empty fields.
type QueryFilter struct {
	Search   string `query:"search"`
	Location string `query:"location"`
	Year     int    `query:"year"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Location == "" && qf.Year == 0
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search, true /* lower */)
	qf.Location = core.CleanString(qf.Location)
}

func (qf *QueryFilter) match(e Entry) bool {
	if qf.Location != "" && !strings.EqualFold(e.Location, qf.Location) {
		return false
	}
	if qf.Year != 0 {
		t, err := ParseDate(e.Date)
		if err != nil || t.Year() != qf.Year {
			return false
		}
	}
	if qf.Search != "" {
		haystack := strings.ToLower(strings.Join([]string{
			e.Date, e.Location, e.ChildrenCount, e.VolunteerCount, strings.Join(e.Volunteers, " "),
		}, " "))
		return strings.Contains(haystack, qf.Search)
	}
	return true
}

// countValue reads a head count for ordering. Missing counts sort first.
func countValue(s string) float64 {
	f, err := strconv.ParseFloat(core.CleanString(s), 64)
	if err != nil {
		return -1
	}
	return f
}
