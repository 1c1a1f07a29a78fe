package stats

type (
	// LocationRow is one row of the location block.
	LocationRow struct {
		Label      string `json:"label"`
		Children   string `json:"children"`
		Volunteers string `json:"volunteers"`
		Ratio      string `json:"ratio"`
		Share      string `json:"share"`
	}

	// GroupRow is one row of the school or grade block.
	GroupRow struct {
		Label            string `json:"label"`
		Volunteers       string `json:"volunteers"`
		Active           string `json:"active"`
		ActivePercentage string `json:"activePercentage"`
		Arrivals         string `json:"arrivals"`
	}

	SchoolRow = GroupRow
	GradeRow  = GroupRow

	// Metrics are the tagged aggregate values of an export. Empty means absent.
	Metrics struct {
		VolunteerHoursRecorded     string
		VolunteerHoursCalculated   string
		ChildrenArrivalsRecorded   string
		ChildrenArrivalsCalculated string
		TotalVolunteers            string
		ActiveVolunteers           string
		ActivePercentage           string
		Extras                     []Extra
	}

	// Extra is a summary label/value pair that is not a known metric.
	Extra struct {
		Label string
		Value string
	}

	SummaryCard struct {
		Label string `json:"label"`
		Value string `json:"value"`
		Delta string `json:"delta,omitempty"`
	}

	Table struct {
		Key     string     `json:"key"`
		Title   string     `json:"title"`
		Columns []string   `json:"columns"`
		Rows    [][]string `json:"rows"`
	}

	Dataset struct {
		Label string    `json:"label"`
		Data  []float64 `json:"data"`
	}

	Chart struct {
		Key      string    `json:"key"`
		Title    string    `json:"title"`
		Type     string    `json:"type"`
		Labels   []string  `json:"labels"`
		Datasets []Dataset `json:"datasets"`
	}

	Filters struct {
		Locations []string `json:"locations"`
		Schools   []string `json:"schools"`
		Grades    []string `json:"grades"`
	}

	// Stats is the presentation-ready result of one export.
	Stats struct {
		SummaryCards []SummaryCard `json:"summaryCards"`
		Tables       []Table       `json:"tables"`
		Charts       []Chart       `json:"charts"`
		Filters      Filters       `json:"filters"`
	}

	// rowSet holds the classified data rows of an export.
	rowSet struct {
		locations []LocationRow
		schools   []SchoolRow
		grades    []GradeRow
		metrics   Metrics
	}
)
