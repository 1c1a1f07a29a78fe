package stats

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exportWidth = 24

// exportRow lays cells out at their column index.
func exportRow(cells map[int]string) []string {
	row := make([]string, exportWidth)
	for i, c := range cells {
		row[i] = c
	}
	return row
}

func toTSV(rows ...[]string) string {
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, strings.Join(r, "\t"))
	}
	return strings.Join(lines, "\r\n")
}

func headerRow() []string {
	return exportRow(map[int]string{
		0: "Lokacija", 1: "DJECA", 2: "VOLONTERI", 3: "OMJER", 4: "UDIO",
		6: "ŠKOLA", 12: "RAZRED", 18: "TIP", 22: "SAŽETAK",
	})
}

func sampleRows() [][]string {
	return [][]string{
		{"Statistika volontiranja"},
		{""},
		headerRow(),
		exportRow(map[int]string{
			0: "Dubrava", 1: "120", 2: "30", 3: "4,00", 4: "40%",
			6: "XV. gimnazija", 7: "20", 8: "15", 9: "75%", 10: "60",
			12: "3.", 13: "10", 14: "8", 15: "80%", 16: "30",
			18: "VOLONTERI", 19: "10", 20: "12",
			22: "Sezona", 23: "2025/26",
		}),
		exportRow(map[int]string{
			0: "Dugave", 1: "80", 2: "n/a",
			6: "Klasična gimnazija", 7: "12", 8: "6", 9: "50%", 10: "",
			18: "djeca", 19: "90", 20: "100",
			22: "volonteri", 23: "45",
		}),
		exportRow(map[int]string{
			12: "4.", 13: "5", 14: "2", 15: "40%", 16: "x",
			18: "VOLUNTEERS", 19: "40", 20: "40",
			22: "Aktivni volonteri", 23: "30",
		}),
		exportRow(map[int]string{
			22: "POSTOTAK AKTIVNIH", 23: "66,7",
		}),
		exportRow(map[int]string{
			22: "Mentori", 23: "7",
		}),
		{"", "\ufeff", "  "},
	}
}

func TestParse_noHeader(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "blank lines", text: "\n\r\n\t\t\n"},
		{name: "header not first cell", text: "x\tLOKACIJA\n"},
		{name: "data only", text: "Dubrava\t10\t5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.text)
			assert.False(t, ok)
			assert.Nil(t, got)
		})
	}
}

func TestParse_headerWithoutData(t *testing.T) {
	got, ok := Parse("title\n\ufeffLOKACIJA\tDJECA\n\n")
	require.True(t, ok)

	assert.NotNil(t, got.SummaryCards)
	assert.Empty(t, got.SummaryCards)
	require.Len(t, got.Tables, 3)
	for _, tbl := range got.Tables {
		assert.NotNil(t, tbl.Rows)
		assert.Empty(t, tbl.Rows)
	}
	assert.NotNil(t, got.Charts)
	assert.Empty(t, got.Charts)
	assert.NotNil(t, got.Filters.Locations)
	assert.Empty(t, got.Filters.Locations)
	assert.Empty(t, got.Filters.Schools)
	assert.Empty(t, got.Filters.Grades)
}

func TestParse_englishHeader(t *testing.T) {
	got, ok := Parse("Location\tChildren\tVolunteers\nDubrava\t10\t5\n")
	require.True(t, ok)
	assert.Equal(t, []string{"Dubrava"}, got.Filters.Locations)
}

func TestParse_sample(t *testing.T) {
	got, ok := Parse(toTSV(sampleRows()...))
	require.True(t, ok)

	t.Run("tables", func(t *testing.T) {
		require.Len(t, got.Tables, 3)
		assert.Equal(t, "location", got.Tables[0].Key)
		assert.Equal(t, "school", got.Tables[1].Key)
		assert.Equal(t, "grade", got.Tables[2].Key)

		assert.Equal(t, [][]string{
			{"Dubrava", "120", "30", "4,00", "40%"},
			{"Dugave", "80", "n/a", "", ""},
		}, got.Tables[0].Rows)
		assert.Equal(t, [][]string{
			{"XV. gimnazija", "20", "15", "75%", "60"},
			{"Klasična gimnazija", "12", "6", "50%", ""},
		}, got.Tables[1].Rows)
		assert.Equal(t, [][]string{
			{"3.", "10", "8", "80%", "30"},
			{"4.", "5", "2", "40%", "x"},
		}, got.Tables[2].Rows)
	})

	t.Run("filters", func(t *testing.T) {
		assert.Equal(t, []string{"Dubrava", "Dugave"}, got.Filters.Locations)
		assert.Equal(t, []string{"XV. gimnazija", "Klasična gimnazija"}, got.Filters.Schools)
		assert.Equal(t, []string{"3.", "4."}, got.Filters.Grades)
		assert.Len(t, got.Filters.Locations, len(got.Tables[0].Rows))
		assert.Len(t, got.Filters.Schools, len(got.Tables[1].Rows))
		assert.Len(t, got.Filters.Grades, len(got.Tables[2].Rows))
	})

	t.Run("summary cards", func(t *testing.T) {
		// volunteer hours: "10"/"12" is overwritten by the later "40"/"40" row
		assert.Equal(t, []SummaryCard{
			{Label: "Sezona", Value: "2025/26"},
			{Label: "Mentori", Value: "7"},
			{Label: cardVolunteerHours, Value: "40"},
			{Label: cardChildrenArrivals, Value: "100", Delta: "Recorded: 90"},
			{Label: cardTotalVolunteers, Value: "45"},
			{Label: cardActiveVolunteers, Value: "30"},
			{Label: cardActivePercentage, Value: "66,7%"},
			{Label: cardChildrenPerHour, Value: "2,50"},
		}, got.SummaryCards)
	})

	t.Run("charts", func(t *testing.T) {
		require.Len(t, got.Charts, 3)

		loc := got.Charts[0]
		assert.Equal(t, "location", loc.Key)
		assert.Equal(t, []string{"Dubrava", "Dugave"}, loc.Labels)
		assert.Equal(t, []Dataset{
			{Label: "Children", Data: []float64{120, 80}},
			{Label: "Volunteers", Data: []float64{30, 0}},
		}, loc.Datasets)

		school := got.Charts[1]
		assert.Equal(t, "school", school.Key)
		assert.Equal(t, []Dataset{
			{Label: "Active volunteers", Data: []float64{15, 6}},
			{Label: "Arrivals", Data: []float64{60, 0}},
		}, school.Datasets)

		grade := got.Charts[2]
		assert.Equal(t, "grade", grade.Key)
		assert.Equal(t, "Arrivals", grade.Datasets[1].Label)
		assert.Equal(t, []float64{30, 0}, grade.Datasets[1].Data)
	})
}

func TestParse_chartsFallBackToActivePercentage(t *testing.T) {
	got, ok := ParseRows([][]string{
		headerRow(),
		exportRow(map[int]string{6: "OŠ Dubrava", 8: "4", 9: "40%", 10: "-"}),
		exportRow(map[int]string{6: "OŠ Dugave", 8: "x", 9: "55%"}),
	})
	require.True(t, ok)
	require.Len(t, got.Charts, 1)

	c := got.Charts[0]
	assert.Equal(t, "school", c.Key)
	assert.Equal(t, []Dataset{
		{Label: "Active volunteers", Data: []float64{4, 0}},
		{Label: "Active %", Data: []float64{40, 55}},
	}, c.Datasets)
}

func TestBuildSummaryCards(t *testing.T) {
	tests := []struct {
		name    string
		metrics Metrics
		want    []SummaryCard
	}{
		{
			name:    "calculated preferred",
			metrics: Metrics{VolunteerHoursRecorded: "10", VolunteerHoursCalculated: "12"},
			want:    []SummaryCard{{Label: cardVolunteerHours, Value: "12", Delta: "Recorded: 10"}},
		},
		{
			name:    "equal values have no delta",
			metrics: Metrics{VolunteerHoursRecorded: "10", VolunteerHoursCalculated: "10"},
			want:    []SummaryCard{{Label: cardVolunteerHours, Value: "10"}},
		},
		{
			name:    "numerically equal values have no delta",
			metrics: Metrics{ChildrenArrivalsRecorded: "1.000", ChildrenArrivalsCalculated: "1000"},
			want:    []SummaryCard{{Label: cardChildrenArrivals, Value: "1000"}},
		},
		{
			name:    "recorded only",
			metrics: Metrics{VolunteerHoursRecorded: "10"},
			want:    []SummaryCard{{Label: cardVolunteerHours, Value: "10"}},
		},
		{
			name:    "ratio",
			metrics: Metrics{ChildrenArrivalsCalculated: "100", VolunteerHoursCalculated: "40"},
			want: []SummaryCard{
				{Label: cardVolunteerHours, Value: "40"},
				{Label: cardChildrenArrivals, Value: "100"},
				{Label: cardChildrenPerHour, Value: "2,50"},
			},
		},
		{
			name:    "ratio rounds half away from zero",
			metrics: Metrics{ChildrenArrivalsRecorded: "1", VolunteerHoursRecorded: "8"},
			want: []SummaryCard{
				{Label: cardVolunteerHours, Value: "8"},
				{Label: cardChildrenArrivals, Value: "1"},
				{Label: cardChildrenPerHour, Value: "0,13"},
			},
		},
		{
			name:    "no ratio for zero hours",
			metrics: Metrics{ChildrenArrivalsCalculated: "100", VolunteerHoursCalculated: "0"},
			want: []SummaryCard{
				{Label: cardVolunteerHours, Value: "0"},
				{Label: cardChildrenArrivals, Value: "100"},
			},
		},
		{
			name:    "no ratio for unparseable children",
			metrics: Metrics{ChildrenArrivalsCalculated: "mnogo", VolunteerHoursCalculated: "40"},
			want: []SummaryCard{
				{Label: cardVolunteerHours, Value: "40"},
				{Label: cardChildrenArrivals, Value: "mnogo"},
			},
		},
		{
			name:    "percentage suffix kept",
			metrics: Metrics{ActivePercentage: "75%"},
			want:    []SummaryCard{{Label: cardActivePercentage, Value: "75%"}},
		},
		{
			name: "extras first",
			metrics: Metrics{
				TotalVolunteers:  "45",
				ActiveVolunteers: "30",
				Extras:           []Extra{{Label: "B", Value: "2"}, {Label: "A", Value: "1"}},
			},
			want: []SummaryCard{
				{Label: "B", Value: "2"},
				{Label: "A", Value: "1"},
				{Label: cardTotalVolunteers, Value: "45"},
				{Label: cardActiveVolunteers, Value: "30"},
			},
		},
		{
			name: "nothing",
			want: []SummaryCard{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildSummaryCards(tt.metrics))
		})
	}
}

func TestLayout_custom(t *testing.T) {
	l := DefaultLayout()
	l.Location.Children, l.Location.Volunteers = 2, 1

	got, ok := l.Parse("LOKACIJA\nCentar\t5\t50\n")
	require.True(t, ok)
	assert.Equal(t, [][]string{{"Centar", "50", "5", "", ""}}, got.Tables[0].Rows)
}

func TestSplitTSV(t *testing.T) {
	got := SplitTSV("a\tb\r\nc\rd\n")
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}, {"d"}, {""}}, got)
}
