package volunteer

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	mstats "github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"golang.org/x/text/collate"

	"github.com/volonteri/evidencija/core"
)

var (
	// DefaultLocations is offered when the roster names no location.
	DefaultLocations = []string{"Dubrava", "Dugave", "Centar"}

	leadingNumber = regexp.MustCompile(`^-?\d+(\.\d+)?`)

	errMsgFetch = "Failed to fetch names"
)

type (
	Service interface {
		// Query returns the filtered roster, ordered by name unless orderings are given.
		Query(ctx context.Context, filter QueryFilter, orderings []core.Ordering) ([]Volunteer, error)
		// Locations returns the distinct roster locations in collation order.
		Locations(ctx context.Context) ([]string, error)
		Summary(ctx context.Context, filter QueryFilter) (Summary, error)
	}

	service struct {
		store  core.SheetStore
		roster string
	}
)

var _ Service = (*service)(nil)

// NewService reads volunteers from the roster range of store (e.g. "BAZA!A2:F").
func NewService(store core.SheetStore, roster string) Service {
	return &service{store: store, roster: roster}
}

func (svc *service) load(ctx context.Context) ([]Volunteer, error) {
	rows, err := svc.store.ReadRange(ctx, svc.roster)
	if err != nil {
		return nil, core.NewUpstreamError(errMsgFetch, err)
	}
	vols := make([]Volunteer, 0, len(rows))
	for _, row := range rows {
		if v, ok := fromRow(row); ok {
			vols = append(vols, v)
		}
	}
	return vols, nil
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, orderings []core.Ordering) ([]Volunteer, error) {
	less, err := orderBy(orderings)
	if err != nil {
		return nil, err
	}
	vols, err := svc.load(ctx)
	if err != nil {
		return nil, err
	}

	filter.Clean()
	if !filter.IsEmpty() {
		kept := vols[:0]
		for _, v := range vols {
			if filter.match(v) {
				kept = append(kept, v)
			}
		}
		vols = kept
	}

	sort.SliceStable(vols, func(i, j int) bool { return less(vols[i], vols[j]) })
	return vols, nil
}

func (svc *service) Locations(ctx context.Context) ([]string, error) {
	vols, err := svc.load(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	locs := make([]string, 0)
	for _, v := range vols {
		for _, l := range v.Locations {
			key := strings.ToLower(l)
			if !seen[key] {
				seen[key] = true
				locs = append(locs, l)
			}
		}
	}
	if len(locs) == 0 {
		return append([]string(nil), DefaultLocations...), nil
	}

	col := core.NewCollator()
	sort.SliceStable(locs, func(i, j int) bool { return col.CompareString(locs[i], locs[j]) < 0 })
	return locs, nil
}

func (svc *service) Summary(ctx context.Context, filter QueryFilter) (Summary, error) {
	vols, err := svc.Query(ctx, filter, nil)
	if err != nil {
		return Summary{}, err
	}
	if len(vols) == 0 {
		return Summary{}, nil
	}

	hours := make(mstats.Float64Data, 0, len(vols))
	for _, v := range vols {
		hours = append(hours, v.HoursValue)
	}

	sum := Summary{Count: len(vols)}
	if sum.TotalHours, err = hours.Sum(); err != nil {
		return Summary{}, errors.Wrap(err, "summing hours")
	}
	if sum.MeanHours, err = hours.Mean(); err != nil {
		return Summary{}, errors.Wrap(err, "averaging hours")
	}
	if sum.MedianHours, err = hours.Median(); err != nil {
		return Summary{}, errors.Wrap(err, "computing median hours")
	}
	if sum.MaxHours, err = hours.Max(); err != nil {
		return Summary{}, errors.Wrap(err, "computing max hours")
	}
	sum.MeanHours, _ = mstats.Round(sum.MeanHours, 2)
	return sum, nil
}

// parseHours reads the leading number of an hours cell ("12,5 h" -> 12.5). Anything else is 0.
func parseHours(s string) float64 {
	s = strings.ReplaceAll(core.CleanString(s), ",", ".")
	f, err := strconv.ParseFloat(leadingNumber.FindString(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// leadingInt reads the leading number of a grade cell ("3." -> 3).
func leadingInt(s string) (float64, bool) {
	m := leadingNumber.FindString(core.CleanString(s))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	return f, err == nil
}

type lessFunc func(a, b Volunteer) bool

// orderBy builds a comparator for orderings. Ties fall through to the next key, then to the name.
func orderBy(orderings []core.Ordering) (lessFunc, error) {
	col := core.NewCollator()
	keys := append(append([]core.Ordering(nil), orderings...), core.Ordering{Field: "name", Ascending: true})

	cmps := make([]func(a, b Volunteer) int, 0, len(keys))
	for _, ord := range keys {
		cmp, err := comparator(col, ord.Field)
		if err != nil {
			return nil, err
		}
		if !ord.Ascending {
			asc := cmp
			cmp = func(a, b Volunteer) int { return -asc(a, b) }
		}
		cmps = append(cmps, cmp)
	}

	return func(a, b Volunteer) bool {
		for _, cmp := range cmps {
			if c := cmp(a, b); c != 0 {
				return c < 0
			}
		}
		return false
	}, nil
}

func comparator(col *collate.Collator, field string) (func(a, b Volunteer) int, error) {
	switch field {
	case "name":
		return func(a, b Volunteer) int { return col.CompareString(a.Name, b.Name) }, nil
	case "school":
		return func(a, b Volunteer) int { return col.CompareString(a.School, b.School) }, nil
	case "grade":
		return func(a, b Volunteer) int {
			ga, okA := leadingInt(a.Grade)
			gb, okB := leadingInt(b.Grade)
			if okA && okB {
				return compareFloats(ga, gb)
			}
			return col.CompareString(a.Grade, b.Grade)
		}, nil
	case "locations":
		return func(a, b Volunteer) int {
			return col.CompareString(strings.Join(a.Locations, ", "), strings.Join(b.Locations, ", "))
		}, nil
	case "phone":
		return func(a, b Volunteer) int { return strings.Compare(a.Phone, b.Phone) }, nil
	case "hours":
		return func(a, b Volunteer) int { return compareFloats(a.HoursValue, b.HoursValue) }, nil
	}
	return nil, core.NewValidationError(nil, core.FieldError{Field: "ordering", Error: "unknown field " + strconv.Quote(field)})
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
