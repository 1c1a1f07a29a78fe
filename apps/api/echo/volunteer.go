package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/volonteri/evidencija/core/volunteer"
)

type volunteerApi struct {
	svc volunteer.Service
}

func registerVolunteerAPI(g *echo.Group, svc volunteer.Service) {
	api := volunteerApi{svc: svc}

	g.GET("/names", api.query)
	g.GET("/names/summary", api.summary)
	g.GET("/locations", api.locations)
}

func (api *volunteerApi) query(ctx echo.Context) error {
	filter := new(volunteer.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []volunteer.Volunteer{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	vols, err := api.svc.Query(ctx.Request().Context(), *filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying volunteers")
	}
	if vols == nil {
		vols = []volunteer.Volunteer{}
	}
	return ctx.JSON(http.StatusOK, vols)
}

func (api *volunteerApi) summary(ctx echo.Context) error {
	filter := new(volunteer.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	sum, err := api.svc.Summary(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "summarizing volunteers")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *volunteerApi) locations(ctx echo.Context) error {
	locs, err := api.svc.Locations(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing locations")
	}
	return ctx.JSON(http.StatusOK, locs)
}
