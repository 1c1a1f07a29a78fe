package stats

// LocationHeader is the first cell of the export's header row. LOCATION is accepted as well.
const LocationHeader = "LOKACIJA"

type (
	LocationColumns struct {
		Label, Children, Volunteers, Ratio, Share int
	}

	GroupColumns struct {
		Label, Volunteers, Active, ActivePercentage, Arrivals int
	}

	MetricColumns struct {
		Type, Recorded, Calculated int
	}

	SummaryColumns struct {
		Label, Value int
	}

	// Layout maps every block of the export to zero-based column indices.
	Layout struct {
		Location LocationColumns
		School   GroupColumns
		Grade    GroupColumns
		Metric   MetricColumns
		Summary  SummaryColumns
	}
)

// DefaultLayout is the layout of the published statistics sheet.
func DefaultLayout() Layout {
	return Layout{
		Location: LocationColumns{Label: 0, Children: 1, Volunteers: 2, Ratio: 3, Share: 4},
		School:   GroupColumns{Label: 6, Volunteers: 7, Active: 8, ActivePercentage: 9, Arrivals: 10},
		Grade:    GroupColumns{Label: 12, Volunteers: 13, Active: 14, ActivePercentage: 15, Arrivals: 16},
		Metric:   MetricColumns{Type: 18, Recorded: 19, Calculated: 20},
		Summary:  SummaryColumns{Label: 22, Value: 23},
	}
}

// metric types and summary labels, Croatian first
var (
	locationHeaders      = []string{LocationHeader, "LOCATION"}
	volunteersTags       = []string{"VOLONTERI", "VOLUNTEERS"}
	childrenTags         = []string{"DJECA", "CHILDREN"}
	activeVolunteersTags = []string{"AKTIVNI VOLONTERI", "ACTIVE VOLUNTEERS"}
	activePercentageTags = []string{"POSTOTAK AKTIVNIH", "ACTIVE PERCENTAGE"}
)
