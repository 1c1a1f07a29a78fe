package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/volonteri/evidencija/core"
	"github.com/volonteri/evidencija/tests"
)

type recordingLogger struct {
	core.Logger
	errors []string
}

func (l *recordingLogger) Error(msg string, args ...interface{}) {
	l.errors = append(l.errors, msg)
}

func Test_newAppHTTPErrorHandler(t *testing.T) {
	_, translator := testutil.NewValidator()

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
		wantLogs []string
	}{
		{
			name:     "http error",
			err:      errForbidden,
			wantCode: http.StatusForbidden,
			wantBody: `{"error":"permission denied"}`,
		},
		{
			name:     "field errors",
			err:      core.NewValidationError(nil, core.FieldError{Field: "ordering", Error: "unknown field"}),
			wantCode: http.StatusBadRequest,
			wantBody: `{"ordering":"unknown field"}`,
		},
		{
			name:     "upstream",
			err:      errors.Wrap(core.NewUpstreamError("Failed to fetch names", errors.New("quota")), "query"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"Failed to fetch names"}`,
			wantLogs: []string{"Failed to fetch names"},
		},
		{
			name:     "anything else",
			err:      errors.New("boom"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"Internal Server Error"}`,
			wantLogs: []string{"Internal Server Error"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &recordingLogger{}
			e := echo.New()
			rec := httptest.NewRecorder()
			ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/names", nil), rec)

			newAppHTTPErrorHandler(logger, translator)(tt.err, ctx)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.Equal(t, tt.wantLogs, logger.errors)
		})
	}
}
