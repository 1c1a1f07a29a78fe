package gsheets

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/volonteri/evidencija/core"
)

const tokenURL = "https://oauth2.googleapis.com/token"

// Store is a core.SheetStore backed by one Google spreadsheet.
type Store struct {
	svc           *sheets.Service
	spreadsheetID string
}

var _ core.SheetStore = (*Store)(nil)

// NewStore authenticates with a service account key.
func NewStore(ctx context.Context, conf *core.Config) (*Store, error) {
	if !conf.HasGoogleCredentials() {
		return nil, errors.New("google service account credentials are not configured")
	}
	jwtConf := &jwt.Config{
		Email:      conf.Google.ClientEmail,
		PrivateKey: []byte(conf.Google.PrivateKey),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   tokenURL,
	}
	return NewStoreWithOptions(ctx, conf.Google.SpreadsheetID, option.WithHTTPClient(jwtConf.Client(ctx)))
}

// NewStoreWithOptions builds a Store from raw client options.
func NewStoreWithOptions(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Store, error) {
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet ID is not configured")
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating sheets service")
	}
	return &Store{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func (s *Store) ReadRange(ctx context.Context, rng string) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", rng)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, vals := range resp.Values {
		row := make([]string, 0, len(vals))
		for _, v := range vals {
			row = append(row, cellString(v))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Store) AppendRows(ctx context.Context, rng string, rows [][]string) error {
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, rng, valueRange(rows)).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return errors.Wrapf(err, "appending to %s", rng)
}

func (s *Store) EnsureSheet(ctx context.Context, title string, header []string) (bool, error) {
	exists, err := s.hasSheet(ctx, title)
	if err != nil {
		return false, err
	}
	if !exists {
		created, err := s.addSheet(ctx, title)
		if err != nil {
			return false, err
		}
		if created {
			return true, s.writeHeader(ctx, title, header)
		}
	}
	// an earlier header write may have failed after the sheet was added
	return false, s.ensureHeader(ctx, title, header)
}

// addSheet reports false when another request added the sheet first.
func (s *Store) addSheet(ctx context.Context, title string) (bool, error) {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: title}}},
		},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		if isDuplicateSheet(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "adding sheet %q", title)
	}
	return true, nil
}

func headerRange(title string, header []string) core.Range {
	return core.Range{Sheet: title, FromCol: 1, FromRow: 1, ToCol: len(header), ToRow: 1}
}

func (s *Store) writeHeader(ctx context.Context, title string, header []string) error {
	err := s.AppendRows(ctx, headerRange(title, header).String(), [][]string{header})
	return errors.Wrapf(err, "writing %q header", title)
}

func (s *Store) ensureHeader(ctx context.Context, title string, header []string) error {
	if len(header) == 0 {
		return nil
	}
	rows, err := s.ReadRange(ctx, headerRange(title, header).String())
	if err != nil {
		return err
	}
	if len(rows) > 0 && strings.Join(rows[0], "") != "" {
		return nil
	}
	return s.writeHeader(ctx, title, header)
}

func (s *Store) hasSheet(ctx context.Context, title string) (bool, error) {
	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return false, errors.Wrap(err, "reading spreadsheet")
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func isDuplicateSheet(err error) bool {
	var gErr *googleapi.Error
	if !errors.As(err, &gErr) {
		return false
	}
	return gErr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(gErr.Message), "already exists")
}

func valueRange(rows [][]string) *sheets.ValueRange {
	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		vals := make([]interface{}, 0, len(row))
		for _, c := range row {
			vals = append(vals, c)
		}
		values = append(values, vals)
	}
	return &sheets.ValueRange{Values: values}
}

func cellString(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
