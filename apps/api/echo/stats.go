package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/volonteri/evidencija/core/stats"
)

type statsApi struct {
	svc stats.Service
}

func registerStatsAPI(g *echo.Group, svc stats.Service) {
	api := statsApi{svc: svc}

	g.GET("/statistika", api.report)
}

func (api *statsApi) report(ctx echo.Context) error {
	report, err := api.svc.Report(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "building statistics report")
	}
	return ctx.JSON(http.StatusOK, report)
}
