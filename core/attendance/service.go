package attendance

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/collate"

	"github.com/volonteri/evidencija/core"
)

var (
	errMsgSave  = "Failed to save attendance"
	errMsgFetch = "Failed to fetch attendance"

	// DefaultOrdering lists the latest sessions first.
	DefaultOrdering = []core.Ordering{{Field: "date", Ascending: false}}
)

type (
	Service interface {
		// Record validates ne and appends it as one row, creating the sheet on first use.
		Record(ctx context.Context, ne NewEntry) (Entry, error)
		Query(ctx context.Context, filter QueryFilter, orderings []core.Ordering) ([]Entry, error)
		// Exists reports whether a session on date at location is already recorded.
		Exists(ctx context.Context, date, location string) (bool, error)
	}

	Options struct {
		Sheet     string   // e.g. "Evidencija"
		Header    []string // written once when the sheet is created
		ReadRange string   // e.g. "Evidencija!A2:E"
		NotifyTo  []mail.Address
	}

	service struct {
		store    core.SheetStore
		validate *validator.Validate
		mailSvc  core.EmailService
		logger   core.Logger
		opts     Options
	}
)

var _ Service = (*service)(nil)

func NewService(
	store core.SheetStore,
	validate *validator.Validate,
	mailSvc core.EmailService,
	logger core.Logger,
	opts Options,
) Service {
	return &service{
		store:    store,
		validate: validate,
		mailSvc:  mailSvc,
		logger:   logger,
		opts:     opts,
	}
}

// appendRange is the whole width of the sheet: "Evidencija!A1:E".
func (svc *service) appendRange() string {
	width := len(svc.opts.Header)
	if width == 0 {
		width = colVolunteers + 1
	}
	return core.Range{Sheet: svc.opts.Sheet, FromCol: 1, FromRow: 1, ToCol: width}.String()
}

func (svc *service) Record(ctx context.Context, ne NewEntry) (Entry, error) {
	if err := ne.Validate(svc.validate); err != nil {
		return Entry{}, err
	}

	created, err := svc.store.EnsureSheet(ctx, svc.opts.Sheet, svc.opts.Header)
	if err != nil {
		return Entry{}, core.NewUpstreamError(errMsgSave, err)
	}
	if created {
		svc.logger.Info(fmt.Sprintf("created sheet %q", svc.opts.Sheet))
	}

	e := ne.entry()
	if err = svc.store.AppendRows(ctx, svc.appendRange(), [][]string{e.row()}); err != nil {
		return Entry{}, core.NewUpstreamError(errMsgSave, err)
	}

	svc.notify(e)
	return e, nil
}

func (svc *service) notify(e Entry) {
	if svc.mailSvc == nil || len(svc.opts.NotifyTo) == 0 {
		return
	}
	body := new(strings.Builder)
	_, _ = fmt.Fprintf(body, "Date: %s\n", e.Date)
	_, _ = fmt.Fprintf(body, "Location: %s\n", e.Location)
	_, _ = fmt.Fprintf(body, "Children: %s\n", e.ChildrenCount)
	_, _ = fmt.Fprintf(body, "Volunteers: %s\n", e.VolunteerCount)
	_, _ = fmt.Fprintf(body, "Names: %s\n", strings.Join(e.Volunteers, NamesSeparator))

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      svc.opts.NotifyTo,
		Subject: fmt.Sprintf("Attendance recorded: %s, %s", e.Location, e.Date),
		BodyStr: body.String(),
	})
}

func (svc *service) load(ctx context.Context) ([]Entry, error) {
	rows, err := svc.store.ReadRange(ctx, svc.opts.ReadRange)
	if err != nil {
		return nil, core.NewUpstreamError(errMsgFetch, err)
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		entries = append(entries, fromRow(row))
	}
	return entries, nil
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, orderings []core.Ordering) ([]Entry, error) {
	if len(orderings) == 0 {
		orderings = DefaultOrdering
	}
	less, err := orderBy(orderings)
	if err != nil {
		return nil, err
	}
	entries, err := svc.load(ctx)
	if err != nil {
		return nil, err
	}

	filter.Clean()
	if !filter.IsEmpty() {
		kept := entries[:0]
		for _, e := range entries {
			if filter.match(e) {
				kept = append(kept, e)
			}
		}
		entries = kept
	}

	sort.SliceStable(entries, func(i, j int) bool { return less(entries[i], entries[j]) })
	return entries, nil
}

func (svc *service) Exists(ctx context.Context, date, location string) (bool, error) {
	var fields []core.FieldError
	d, err := NormalizeDate(date)
	if err != nil {
		fields = append(fields, core.FieldError{Field: "date", Error: sessionDateText})
	}
	location = core.CleanString(location)
	if location == "" {
		fields = append(fields, core.FieldError{Field: "location", Error: "this field is required"})
	}
	if len(fields) > 0 {
		return false, core.NewValidationError(nil, fields...)
	}

	entries, err := svc.load(ctx)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if !strings.EqualFold(e.Location, location) {
			continue
		}
		if ed, err := NormalizeDate(e.Date); err == nil && ed == d {
			return true, nil
		}
	}
	return false, nil
}

type lessFunc func(a, b Entry) bool

// orderBy builds a comparator for orderings. Ties keep the sheet order.
func orderBy(orderings []core.Ordering) (lessFunc, error) {
	col := core.NewCollator()
	cmps := make([]func(a, b Entry) int, 0, len(orderings))
	for _, ord := range orderings {
		cmp, err := comparator(col, ord.Field)
		if err != nil {
			return nil, err
		}
		if !ord.Ascending {
			asc := cmp
			cmp = func(a, b Entry) int { return -asc(a, b) }
		}
		cmps = append(cmps, cmp)
	}

	return func(a, b Entry) bool {
		for _, cmp := range cmps {
			if c := cmp(a, b); c != 0 {
				return c < 0
			}
		}
		return false
	}, nil
}

func comparator(col *collate.Collator, field string) (func(a, b Entry) int, error) {
	switch field {
	case "date":
		return compareDates, nil
	case "location":
		return func(a, b Entry) int { return col.CompareString(a.Location, b.Location) }, nil
	case "childrenCount":
		return func(a, b Entry) int { return compareFloats(countValue(a.ChildrenCount), countValue(b.ChildrenCount)) }, nil
	case "volunteerCount":
		return func(a, b Entry) int { return compareFloats(countValue(a.VolunteerCount), countValue(b.VolunteerCount)) }, nil
	case "volunteers":
		return func(a, b Entry) int {
			return col.CompareString(strings.Join(a.Volunteers, NamesSeparator), strings.Join(b.Volunteers, NamesSeparator))
		}, nil
	}
	return nil, core.NewValidationError(nil, core.FieldError{Field: "ordering", Error: fmt.Sprintf("unknown field %q", field)})
}

// compareDates orders chronologically. Unparseable dates sort before valid ones.
func compareDates(a, b Entry) int {
	ta, errA := ParseDate(a.Date)
	tb, errB := ParseDate(b.Date)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a.Date, b.Date)
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	}
	return ta.Compare(tb)
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
