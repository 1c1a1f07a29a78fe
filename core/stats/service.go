package stats

import (
	"bytes"
	"context"
	"time"

	"github.com/volonteri/evidencija/core"
)

const (
	FormatTSV  = "tsv"
	FormatXLSX = "xlsx"
)

type (
	// Source fetches the raw published export.
	Source interface {
		Fetch(ctx context.Context) ([]byte, error)
	}

	Service interface {
		Report(ctx context.Context) (Report, error)
	}

	// Report is a Stats with the time its export was fetched.
	Report struct {
		Stats
		FetchedAt time.Time `json:"fetchedAt"`
	}

	service struct {
		src    Source
		format string
		layout Layout
		now    func() time.Time
	}
)

var _ Service = (*service)(nil)

func NewService(src Source, format string) Service {
	return &service{
		src:    src,
		format: format,
		layout: DefaultLayout(),
		now:    time.Now,
	}
}

func (svc *service) Report(ctx context.Context) (Report, error) {
	body, err := svc.src.Fetch(ctx)
	if err != nil {
		return Report{}, err
	}
	fetchedAt := svc.now().UTC()

	var (
		stats *Stats
		ok    bool
	)
	switch svc.format {
	case FormatXLSX:
		rows, err := ReadXLSX(bytes.NewReader(body))
		if err != nil {
			return Report{}, core.NewUpstreamError("failed to decode statistics export", err)
		}
		stats, ok = svc.layout.ParseRows(rows)
	default:
		stats, ok = svc.layout.Parse(string(body))
	}
	if !ok {
		return Report{}, core.NewUpstreamError("statistics export has no "+LocationHeader+" header row", nil)
	}
	return Report{Stats: *stats, FetchedAt: fetchedAt}, nil
}
