package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/volonteri/evidencija/core"
	"github.com/volonteri/evidencija/core/attendance"
	"github.com/volonteri/evidencija/core/stats"
	"github.com/volonteri/evidencija/core/volunteer"
	exportsvc "github.com/volonteri/evidencija/services/export"
)

var (
	isTerminalFunc = term.IsTerminal // mockable
	openFileFunc   = func(name string) (io.ReadCloser, error) { return os.Open(name) } // mockable

	errHelp    = errors.New("help provided")
	errNoStore = errors.New("google credentials are not configured")
)

type commandLine struct {
	conf       *core.Config
	store      core.SheetStore // nil without credentials
	validate   *validator.Validate
	translator ut.Translator
	logger     core.Logger
	out        io.Writer
	outFd      int
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  stats -file PATH|-url URL [-format tsv|xlsx]  - build statistics from an export")
	fmt.Fprintln(cli.out, "  names [-search S] [-location L] [-ordering O]  - list the roster")
	fmt.Fprintln(cli.out, "  evidencija [-location L] [-year Y] [-ordering O] - list recorded sessions")
	fmt.Fprintln(cli.out, "  record -date D -location L [-children N] [-volunteers N] [-names \"A, B\"] - record a session")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	statsCmd := cli.newFlagSet("stats")
	statsFile := statsCmd.String("file", "", "Path to a downloaded export.")
	statsURL := statsCmd.String("url", "", "Published export URL. Defaults to stats.exportUrl.")
	statsFormat := statsCmd.String("format", cli.conf.Stats.ExportFormat, "Export format: tsv or xlsx.")

	namesCmd := cli.newFlagSet("names")
	namesSearch := namesCmd.String("search", "", "Case-insensitive search on every column.")
	namesLocation := namesCmd.String("location", "", "Only volunteers of this location.")
	namesOrdering := namesCmd.String("ordering", "", "Comma separated fields, \"-\" for descending.")

	entriesCmd := cli.newFlagSet("evidencija")
	entriesLocation := entriesCmd.String("location", "", "Only sessions at this location.")
	entriesYear := entriesCmd.Int("year", 0, "Only sessions of this year.")
	entriesOrdering := entriesCmd.String("ordering", "", "Comma separated fields, \"-\" for descending.")

	recordCmd := cli.newFlagSet("record")
	recordDate := recordCmd.String("date", "", "Session date: dd/mm/yyyy or yyyy-mm-dd.")
	recordLocation := recordCmd.String("location", "", "Session location.")
	recordChildren := recordCmd.String("children", "", "Number of children.")
	recordVolunteers := recordCmd.String("volunteers", "", "Number of volunteers.")
	recordNames := recordCmd.String("names", "", "Comma separated volunteer names.")

	switch args[1] {
	case "stats":
		if err := parse(statsCmd, args[2:]); err != nil {
			return err
		}
		if *statsFile == "" && *statsURL == "" && cli.conf.Stats.ExportURL == "" {
			statsCmd.Usage()
			return errHelp
		}
		return cli.stats(*statsFile, *statsURL, *statsFormat)
	case "names":
		if err := parse(namesCmd, args[2:]); err != nil {
			return err
		}
		filter := volunteer.QueryFilter{Search: *namesSearch, Location: *namesLocation}
		return cli.names(filter, parseOrdering(*namesOrdering))
	case "evidencija":
		if err := parse(entriesCmd, args[2:]); err != nil {
			return err
		}
		filter := attendance.QueryFilter{Location: *entriesLocation, Year: *entriesYear}
		return cli.entries(filter, parseOrdering(*entriesOrdering))
	case "record":
		if err := parse(recordCmd, args[2:]); err != nil {
			return err
		}
		if *recordDate == "" || *recordLocation == "" {
			recordCmd.Usage()
			return errHelp
		}
		ne := attendance.NewEntry{
			SelectedDate:   *recordDate,
			Location:       *recordLocation,
			ChildrenCount:  attendance.Count(*recordChildren),
			VolunteerCount: attendance.Count(*recordVolunteers),
			Selected:       attendance.SplitNames(*recordNames),
		}
		return cli.record(ne)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

func parseOrdering(s string) []core.Ordering {
	var orderings []core.Ordering
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		field = strings.TrimPrefix(field, "-")
		if field != "" {
			orderings = append(orderings, core.Ordering{Field: field, Ascending: !descending})
		}
	}
	return orderings
}

func (cli *commandLine) stats(file, url, format string) error {
	var src stats.Source
	switch {
	case file != "":
		src = exportsvc.NewReaderSource(func() (io.ReadCloser, error) { return openFileFunc(file) })
	case url != "":
		src = exportsvc.NewHTTPSource(url, cli.conf.Stats.FetchTimeout)
	default:
		src = exportsvc.NewHTTPSource(cli.conf.Stats.ExportURL, cli.conf.Stats.FetchTimeout)
	}
	switch format {
	case stats.FormatTSV, stats.FormatXLSX:
	default:
		return fmt.Errorf("unknown export format %q", format)
	}

	report, err := stats.NewService(src, format).Report(context.Background())
	if err != nil {
		return err
	}
	return cli.print(report)
}

func (cli *commandLine) names(filter volunteer.QueryFilter, orderings []core.Ordering) error {
	if cli.store == nil {
		return errNoStore
	}
	vols, err := volunteer.NewService(cli.store, cli.conf.Sheets.Roster).Query(context.Background(), filter, orderings)
	if err != nil {
		return err
	}
	return cli.print(vols)
}

func (cli *commandLine) entries(filter attendance.QueryFilter, orderings []core.Ordering) error {
	if cli.store == nil {
		return errNoStore
	}
	entries, err := cli.attendanceSvc().Query(context.Background(), filter, orderings)
	if err != nil {
		return err
	}
	return cli.print(entries)
}

func (cli *commandLine) record(ne attendance.NewEntry) error {
	if cli.store == nil {
		return errNoStore
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	e, err := cli.attendanceSvc().Record(ctx, ne)
	if err != nil {
		if verrs, ok := pkgerrors.Cause(err).(validator.ValidationErrors); ok {
			return fmt.Errorf("invalid session: %s", formatFieldErrors(core.TranslateErrors(verrs, cli.translator)))
		}
		return err
	}
	return cli.print(e)
}

func (cli *commandLine) attendanceSvc() attendance.Service {
	return attendance.NewService(cli.store, cli.validate, nil, cli.logger, attendance.Options{
		Sheet:     cli.conf.Sheets.AttendanceSheet,
		Header:    cli.conf.Sheets.AttendanceHeader,
		ReadRange: cli.conf.Sheets.Attendance,
	})
}

// print writes v as JSON, indented when stdout is a terminal.
func (cli *commandLine) print(v interface{}) error {
	var data []byte
	var err error
	if isTerminalFunc(cli.outFd) {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cli.out, string(data))
	return err
}

func formatFieldErrors(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return strings.Join(parts, "; ")
}
