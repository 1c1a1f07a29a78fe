package stats

import (
	"strings"

	"github.com/volonteri/evidencija/core"
)

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Parse runs the pipeline on a tab-separated export with the default layout.
func Parse(text string) (*Stats, bool) {
	return DefaultLayout().Parse(text)
}

// ParseRows runs the pipeline on already split rows with the default layout.
func ParseRows(rows [][]string) (*Stats, bool) {
	return DefaultLayout().ParseRows(rows)
}

// Parse runs the pipeline on a tab-separated export.
// ok is false only when the export has no header row.
func (l Layout) Parse(text string) (*Stats, bool) {
	return l.ParseRows(SplitTSV(text))
}

// ParseRows runs the pipeline on already split rows.
func (l Layout) ParseRows(rows [][]string) (*Stats, bool) {
	rows = dropBlankRows(rows)

	header := findHeader(rows)
	if header < 0 {
		return nil, false
	}

	set := l.partition(rows[header+1:])
	return &Stats{
		SummaryCards: buildSummaryCards(set.metrics),
		Tables:       buildTables(set),
		Charts:       buildCharts(set),
		Filters:      buildFilters(set),
	}, true
}

// SplitTSV splits text into rows on any line break and rows into cells on tabs.
func SplitTSV(text string) [][]string {
	lines := strings.Split(lineBreaks.Replace(text), "\n")
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, strings.Split(line, "\t"))
	}
	return rows
}

func dropBlankRows(rows [][]string) [][]string {
	kept := make([][]string, 0, len(rows))
	for _, row := range rows {
		for _, c := range row {
			if core.CleanCell(c) != "" {
				kept = append(kept, row)
				break
			}
		}
	}
	return kept
}

func findHeader(rows [][]string) int {
	for i, row := range rows {
		if matchesAny(core.Cell(row, 0), locationHeaders) {
			return i
		}
	}
	return -1
}

// partition classifies every data row. One row may feed several blocks.
func (l Layout) partition(rows [][]string) rowSet {
	set := rowSet{
		locations: make([]LocationRow, 0),
		schools:   make([]SchoolRow, 0),
		grades:    make([]GradeRow, 0),
	}
	set.metrics.Extras = make([]Extra, 0)

	for _, row := range rows {
		if label := core.Cell(row, l.Location.Label); label != "" {
			set.locations = append(set.locations, LocationRow{
				Label:      label,
				Children:   core.Cell(row, l.Location.Children),
				Volunteers: core.Cell(row, l.Location.Volunteers),
				Ratio:      core.Cell(row, l.Location.Ratio),
				Share:      core.Cell(row, l.Location.Share),
			})
		}
		if gr, ok := groupRow(row, l.School); ok {
			set.schools = append(set.schools, gr)
		}
		if gr, ok := groupRow(row, l.Grade); ok {
			set.grades = append(set.grades, gr)
		}
		l.foldMetric(row, &set.metrics)
		l.foldSummary(row, &set.metrics)
	}
	return set
}

func groupRow(row []string, cols GroupColumns) (GroupRow, bool) {
	label := core.Cell(row, cols.Label)
	if label == "" {
		return GroupRow{}, false
	}
	return GroupRow{
		Label:            label,
		Volunteers:       core.Cell(row, cols.Volunteers),
		Active:           core.Cell(row, cols.Active),
		ActivePercentage: core.Cell(row, cols.ActivePercentage),
		Arrivals:         core.Cell(row, cols.Arrivals),
	}, true
}

// foldMetric applies the metric block. Later non-empty values overwrite earlier ones.
func (l Layout) foldMetric(row []string, m *Metrics) {
	typ := core.Cell(row, l.Metric.Type)
	if typ == "" {
		return
	}
	recorded := core.Cell(row, l.Metric.Recorded)
	calculated := core.Cell(row, l.Metric.Calculated)

	switch {
	case matchesAny(typ, volunteersTags):
		setIfPresent(&m.VolunteerHoursRecorded, recorded)
		setIfPresent(&m.VolunteerHoursCalculated, calculated)
	case matchesAny(typ, childrenTags):
		setIfPresent(&m.ChildrenArrivalsRecorded, recorded)
		setIfPresent(&m.ChildrenArrivalsCalculated, calculated)
	}
}

// foldSummary applies the summary label/value block.
func (l Layout) foldSummary(row []string, m *Metrics) {
	label := core.Cell(row, l.Summary.Label)
	if label == "" {
		return
	}
	value := core.Cell(row, l.Summary.Value)

	switch {
	case matchesAny(label, volunteersTags):
		setIfPresent(&m.TotalVolunteers, value)
	case matchesAny(label, activeVolunteersTags):
		setIfPresent(&m.ActiveVolunteers, value)
	case matchesAny(label, activePercentageTags):
		setIfPresent(&m.ActivePercentage, value)
	default:
		m.Extras = append(m.Extras, Extra{Label: label, Value: value})
	}
}

func matchesAny(s string, tags []string) bool {
	for _, tag := range tags {
		if strings.EqualFold(s, tag) {
			return true
		}
	}
	return false
}

func setIfPresent(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
