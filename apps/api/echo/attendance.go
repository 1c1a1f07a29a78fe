package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/volonteri/evidencija/core/attendance"
)

type attendanceApi struct {
	svc attendance.Service
}

// registerAttendanceAPI mounts the attendance endpoints. Only recording goes through auth.
func registerAttendanceAPI(g *echo.Group, auth echo.MiddlewareFunc, svc attendance.Service) {
	api := attendanceApi{svc: svc}

	g.POST("/attendance", api.record, auth)

	eg := g.Group("/evidencija")
	eg.GET("", api.query)
	eg.GET("/exists", api.exists)
}

func (api *attendanceApi) record(ctx echo.Context) error {
	data := new(attendance.NewEntry)
	if err := ctx.Bind(data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}

	if _, err := api.svc.Record(ctx.Request().Context(), *data); err != nil {
		return errors.Wrap(err, "recording attendance")
	}
	return ctx.JSON(http.StatusOK, RecordResponse{OK: true})
}

func (api *attendanceApi) query(ctx echo.Context) error {
	filter := new(attendance.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []attendance.Entry{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	entries, err := api.svc.Query(ctx.Request().Context(), *filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	if entries == nil {
		entries = []attendance.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *attendanceApi) exists(ctx echo.Context) error {
	var query ExistsRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to ExistsRequest")
	}

	exists, err := api.svc.Exists(ctx.Request().Context(), query.Date, query.Location)
	if err != nil {
		return errors.Wrap(err, "checking attendance")
	}
	return ctx.JSON(http.StatusOK, ExistsResponse{Exists: exists})
}

type (
	RecordResponse struct {
		OK bool `json:"ok"`
	}

	ExistsRequest struct {
		Date     string `query:"date"`
		Location string `query:"location"`
	}

	ExistsResponse struct {
		Exists bool `json:"exists"`
	}
)
