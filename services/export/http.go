package exportsvc

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/volonteri/evidencija/core"
	"github.com/volonteri/evidencija/core/stats"
)

const errMsgFetch = "Failed to fetch statistics"

var maxExportSize = 10 << 20 // mockable

// httpSource downloads the published statistics export. No auth, no retries.
type httpSource struct {
	url    string
	client *http.Client
}

var _ stats.Source = (*httpSource)(nil)

func NewHTTPSource(url string, timeout time.Duration) stats.Source {
	return &httpSource{url: url, client: &http.Client{Timeout: timeout}}
}

func (src *httpSource) Fetch(ctx context.Context) ([]byte, error) {
	if src.url == "" {
		return nil, core.NewUpstreamError(errMsgFetch, errors.New("statistics export URL is not configured"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.url, nil)
	if err != nil {
		return nil, core.NewUpstreamError(errMsgFetch, errors.Wrap(err, "building export request"))
	}
	res, err := src.client.Do(req)
	if err != nil {
		return nil, core.NewUpstreamError(errMsgFetch, errors.Wrap(err, "fetching export"))
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, core.NewUpstreamError(errMsgFetch, errors.Errorf("export responded %s", res.Status))
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, int64(maxExportSize)+1))
	if err != nil {
		return nil, core.NewUpstreamError(errMsgFetch, errors.Wrap(err, "reading export"))
	}
	if len(body) > maxExportSize {
		return nil, core.NewUpstreamError(errMsgFetch, errors.Errorf("export exceeds %d bytes", maxExportSize))
	}
	return body, nil
}

// fileSource reads an export saved on disk, used by the admin tool.
type fileSource struct {
	open func() (io.ReadCloser, error)
}

// NewReaderSource wraps an opener, e.g. a function returning os.Open(path).
func NewReaderSource(open func() (io.ReadCloser, error)) stats.Source {
	return &fileSource{open: open}
}

func (src *fileSource) Fetch(context.Context) ([]byte, error) {
	f, err := src.open()
	if err != nil {
		return nil, errors.Wrap(err, "opening export")
	}
	defer f.Close()
	body, err := io.ReadAll(f)
	return body, errors.Wrap(err, "reading export")
}
