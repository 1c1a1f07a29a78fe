package stats

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	cardVolunteerHours   = "Volunteer hours"
	cardChildrenArrivals = "Children arrivals"
	cardTotalVolunteers  = "Total volunteers"
	cardActiveVolunteers = "Active volunteers"
	cardActivePercentage = "Active percentage"
	cardChildrenPerHour  = "Children per volunteer hour"

	recordedPrefix = "Recorded: "
)

var (
	locationColumns = []string{"Location", "Children", "Volunteers", "Children per volunteer", "Share"}
	schoolColumns   = []string{"School", "Volunteers", "Active", "Active %", "Arrivals"}
	gradeColumns    = []string{"Grade", "Volunteers", "Active", "Active %", "Arrivals"}
)

// buildSummaryCards lists the extras in encounter order, then the computed cards.
// A card whose value is missing is left out.
func buildSummaryCards(m Metrics) []SummaryCard {
	cards := make([]SummaryCard, 0, len(m.Extras)+6)
	for _, e := range m.Extras {
		cards = append(cards, SummaryCard{Label: e.Label, Value: e.Value})
	}

	hours := preferCalculated(m.VolunteerHoursRecorded, m.VolunteerHoursCalculated)
	children := preferCalculated(m.ChildrenArrivalsRecorded, m.ChildrenArrivalsCalculated)

	if c, ok := recordedCard(cardVolunteerHours, m.VolunteerHoursRecorded, m.VolunteerHoursCalculated); ok {
		cards = append(cards, c)
	}
	if c, ok := recordedCard(cardChildrenArrivals, m.ChildrenArrivalsRecorded, m.ChildrenArrivalsCalculated); ok {
		cards = append(cards, c)
	}
	if m.TotalVolunteers != "" {
		cards = append(cards, SummaryCard{Label: cardTotalVolunteers, Value: m.TotalVolunteers})
	}
	if m.ActiveVolunteers != "" {
		cards = append(cards, SummaryCard{Label: cardActiveVolunteers, Value: m.ActiveVolunteers})
	}
	if pct := m.ActivePercentage; pct != "" {
		if !strings.HasSuffix(pct, "%") {
			pct += "%"
		}
		cards = append(cards, SummaryCard{Label: cardActivePercentage, Value: pct})
	}
	if ratio, ok := formatRatio(children, hours); ok {
		cards = append(cards, SummaryCard{Label: cardChildrenPerHour, Value: ratio})
	}
	return cards
}

func preferCalculated(recorded, calculated string) string {
	if calculated != "" {
		return calculated
	}
	return recorded
}

// recordedCard shows the calculated value and quotes the recorded one when they differ.
func recordedCard(label, recorded, calculated string) (SummaryCard, bool) {
	value := preferCalculated(recorded, calculated)
	if value == "" {
		return SummaryCard{}, false
	}
	card := SummaryCard{Label: label, Value: value}
	if recorded != "" && calculated != "" && !sameValue(recorded, calculated) {
		card.Delta = recordedPrefix + recorded
	}
	return card, true
}

// sameValue compares numerically when both sides parse ("1.000" == "1000").
func sameValue(a, b string) bool {
	fa, okA := ParseNumber(a)
	fb, okB := ParseNumber(b)
	if okA && okB {
		return fa == fb
	}
	return a == b
}

// formatRatio formats numerator/denominator with two decimals and a decimal comma.
func formatRatio(numerator, denominator string) (string, bool) {
	n, ok := ParseNumber(numerator)
	if !ok {
		return "", false
	}
	d, ok := ParseNumber(denominator)
	if !ok || d == 0 {
		return "", false
	}
	ratio := decimal.NewFromFloat(n).Div(decimal.NewFromFloat(d))
	return strings.Replace(ratio.StringFixed(2), ".", ",", 1), true
}

func buildTables(set rowSet) []Table {
	locRows := make([][]string, 0, len(set.locations))
	for _, r := range set.locations {
		locRows = append(locRows, []string{r.Label, r.Children, r.Volunteers, r.Ratio, r.Share})
	}
	return []Table{
		{Key: "location", Title: "Locations", Columns: locationColumns, Rows: locRows},
		{Key: "school", Title: "Schools", Columns: schoolColumns, Rows: groupTableRows(set.schools)},
		{Key: "grade", Title: "Grades", Columns: gradeColumns, Rows: groupTableRows(set.grades)},
	}
}

func groupTableRows(rows []GroupRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.Label, r.Volunteers, r.Active, r.ActivePercentage, r.Arrivals})
	}
	return out
}

func buildCharts(set rowSet) []Chart {
	charts := make([]Chart, 0, 3)

	if len(set.locations) > 0 {
		labels := make([]string, 0, len(set.locations))
		children := make([]float64, 0, len(set.locations))
		volunteers := make([]float64, 0, len(set.locations))
		for _, r := range set.locations {
			labels = append(labels, r.Label)
			children = append(children, chartValue(r.Children))
			volunteers = append(volunteers, chartValue(r.Volunteers))
		}
		charts = append(charts, Chart{
			Key:    "location",
			Title:  "Children and volunteers by location",
			Type:   "bar",
			Labels: labels,
			Datasets: []Dataset{
				{Label: "Children", Data: children},
				{Label: "Volunteers", Data: volunteers},
			},
		})
	}
	if c, ok := groupChart("school", "Active volunteers by school", set.schools); ok {
		charts = append(charts, c)
	}
	if c, ok := groupChart("grade", "Active volunteers by grade", set.grades); ok {
		charts = append(charts, c)
	}
	return charts
}

// groupChart plots active volunteers against arrivals, or against the active
// percentage when no row has a usable arrivals value.
func groupChart(key, title string, rows []GroupRow) (Chart, bool) {
	if len(rows) == 0 {
		return Chart{}, false
	}

	useArrivals := false
	for _, r := range rows {
		if _, ok := ParseNumber(r.Arrivals); ok {
			useArrivals = true
			break
		}
	}

	labels := make([]string, 0, len(rows))
	active := make([]float64, 0, len(rows))
	second := make([]float64, 0, len(rows))
	for _, r := range rows {
		labels = append(labels, r.Label)
		active = append(active, chartValue(r.Active))
		if useArrivals {
			second = append(second, chartValue(r.Arrivals))
		} else {
			second = append(second, chartValue(r.ActivePercentage))
		}
	}

	secondLabel := "Active %"
	if useArrivals {
		secondLabel = "Arrivals"
	}
	return Chart{
		Key:    key,
		Title:  title,
		Type:   "bar",
		Labels: labels,
		Datasets: []Dataset{
			{Label: "Active volunteers", Data: active},
			{Label: secondLabel, Data: second},
		},
	}, true
}

func buildFilters(set rowSet) Filters {
	f := Filters{
		Locations: make([]string, 0, len(set.locations)),
		Schools:   make([]string, 0, len(set.schools)),
		Grades:    make([]string, 0, len(set.grades)),
	}
	for _, r := range set.locations {
		f.Locations = append(f.Locations, r.Label)
	}
	for _, r := range set.schools {
		f.Schools = append(f.Schools, r.Label)
	}
	for _, r := range set.grades {
		f.Grades = append(f.Grades, r.Label)
	}
	return f
}
