package volunteer

import (
	"strings"

	"github.com/volonteri/evidencija/core"
)

// Volunteer is one roster row: name, school, grade, locations, phone, hours.
type Volunteer struct {
	Name       string   `json:"name"`
	School     string   `json:"school"`
	Grade      string   `json:"grade"`
	Location   string   `json:"location"`
	Locations  []string `json:"locations"`
	Phone      string   `json:"phone"`
	Hours      string   `json:"hours"`
	HoursValue float64  `json:"hoursValue"`
}

const (
	colName = iota
	colSchool
	colGrade
	colLocations
	colPhone
	colHours
)

// fromRow maps a roster row positionally. ok is false for rows without a name.
func fromRow(row []string) (Volunteer, bool) {
	name := core.Cell(row, colName)
	if name == "" {
		return Volunteer{}, false
	}
	loc := core.Cell(row, colLocations)
	hours := core.Cell(row, colHours)
	return Volunteer{
		Name:       name,
		School:     core.Cell(row, colSchool),
		Grade:      core.Cell(row, colGrade),
		Location:   loc,
		Locations:  SplitLocations(loc),
		Phone:      core.Cell(row, colPhone),
		Hours:      hours,
		HoursValue: parseHours(hours),
	}, true
}

// SplitLocations splits a comma-joined locations cell, dropping blanks.
func SplitLocations(s string) []string {
	locs := make([]string, 0, 1)
	for _, l := range strings.Split(s, ",") {
		if l = core.CleanString(l); l != "" {
			locs = append(locs, l)
		}
	}
	return locs
}

// QueryFilter applies AND on its non-empty fields.
// Search is a case-insensitive substring match on any field.
type QueryFilter struct {
	Search   string `query:"search"`
	School   string `query:"school"`
	Grade    string `query:"grade"`
	Location string `query:"location"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.School == "" && qf.Grade == "" && qf.Location == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search, true /* lower */)
	qf.School = core.CleanString(qf.School)
	qf.Grade = core.CleanString(qf.Grade)
	qf.Location = core.CleanString(qf.Location)
}

func (qf *QueryFilter) match(v Volunteer) bool {
	if qf.School != "" && !strings.EqualFold(v.School, qf.School) {
		return false
	}
	if qf.Grade != "" && !strings.EqualFold(v.Grade, qf.Grade) {
		return false
	}
	if qf.Location != "" && !hasLocation(v, qf.Location) {
		return false
	}
	if qf.Search != "" {
		haystack := strings.ToLower(strings.Join([]string{
			v.Name, v.School, v.Grade, strings.Join(v.Locations, " "), v.Phone, v.Hours,
		}, " "))
		return strings.Contains(haystack, qf.Search)
	}
	return true
}

func hasLocation(v Volunteer, loc string) bool {
	for _, l := range v.Locations {
		if strings.EqualFold(l, loc) {
			return true
		}
	}
	return false
}

// Summary aggregates the hours of a roster selection.
type Summary struct {
	Count       int     `json:"count"`
	TotalHours  float64 `json:"totalHours"`
	MeanHours   float64 `json:"meanHours"`
	MedianHours float64 `json:"medianHours"`
	MaxHours    float64 `json:"maxHours"`
}
