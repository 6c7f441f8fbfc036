package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"donorhub/internal/models"
	"donorhub/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupReconcile struct {
	container *do.Injector
}

func bindMatchFilter(c echo.Context) (models.MatchFilter, error) {
	campaignID, err := queryID(c, "campaign_id")
	if err != nil {
		return models.MatchFilter{}, err
	}

	return models.MatchFilter{
		CampaignID: campaignID,
		Confidence: c.QueryParam("confidence"),
		Search:     c.QueryParam("q"),
	}, nil
}

func (gr *groupReconcile) Matches(c echo.Context) error {
	serviceReconcile, err := do.Invoke[*services.ServiceReconcile](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	filter, err := bindMatchFilter(c)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	matches, err := serviceReconcile.Matches(c.Request().Context(), filter)
	return respond(c, matches, err)
}

func (gr *groupReconcile) ExportMatches(c echo.Context) error {
	serviceReport, err := do.Invoke[*services.ServiceReport](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	filter, err := bindMatchFilter(c)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var buf bytes.Buffer
	if err := serviceReport.Matches(c.Request().Context(), &buf, filter); err != nil {
		return respond(c, nil, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="matches.csv"`)
	return c.Blob(http.StatusOK, services.REPORT_CONTENT_TYPE, buf.Bytes())
}

func (gr *groupReconcile) Selection(c echo.Context) error {
	serviceReconcile, err := do.Invoke[*services.ServiceReconcile](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	admin, err := ResolveAdmin(c.Request().Context())
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	selection, err := serviceReconcile.Selection(c.Request().Context(), admin.Actor())
	return respond(c, selection, err)
}

func (gr *groupReconcile) Toggle(c echo.Context) error {
	serviceReconcile, err := do.Invoke[*services.ServiceReconcile](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	admin, err := ResolveAdmin(c.Request().Context())
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	pledgeID, err := paramID(c, "pledge")
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	selection, err := serviceReconcile.ToggleSelection(c.Request().Context(), admin.Actor(), pledgeID)
	return respond(c, selection, err)
}

func (gr *groupReconcile) SelectConfidence(c echo.Context) error {
	serviceReconcile, err := do.Invoke[*services.ServiceReconcile](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	admin, err := ResolveAdmin(c.Request().Context())
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	selection, err := serviceReconcile.SelectConfidence(c.Request().Context(), admin.Actor(), c.Param("level"))
	return respond(c, selection, err)
}

func (gr *groupReconcile) ClearSelection(c echo.Context) error {
	serviceReconcile, err := do.Invoke[*services.ServiceReconcile](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	admin, err := ResolveAdmin(c.Request().Context())
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	selection, err := serviceReconcile.ClearSelection(c.Request().Context(), admin.Actor())
	return respond(c, selection, err)
}

func (gr *groupReconcile) Assign(c echo.Context) error {
	serviceReconcile, err := do.Invoke[*services.ServiceReconcile](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	admin, err := ResolveAdmin(c.Request().Context())
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload models.AssignPayload
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&payload); err != nil {
			return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
		}
	}

	run, err := serviceReconcile.Assign(c.Request().Context(), admin.Actor(), &payload)
	return respond(c, run, err)
}

func (gr *groupReconcile) Runs(c echo.Context) error {
	serviceReconcile, err := do.Invoke[*services.ServiceReconcile](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	runs, err := serviceReconcile.Runs(c.Request().Context())
	return respond(c, runs, err)
}

func (gr *groupReconcile) Run(c echo.Context) error {
	serviceReconcile, err := do.Invoke[*services.ServiceReconcile](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	run, err := serviceReconcile.Run(c.Request().Context(), c.Param("id"))
	return respond(c, run, err)
}

func (gr *groupReconcile) ExportRun(c echo.Context) error {
	serviceReport, err := do.Invoke[*services.ServiceReport](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	runID := c.Param("id")

	var buf bytes.Buffer
	if err := serviceReport.Run(c.Request().Context(), &buf, runID); err != nil {
		return respond(c, nil, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="run-%s.csv"`, runID))
	return c.Blob(http.StatusOK, services.REPORT_CONTENT_TYPE, buf.Bytes())
}

func (gr *groupReconcile) Retry(c echo.Context) error {
	serviceReconcile, err := do.Invoke[*services.ServiceReconcile](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	admin, err := ResolveAdmin(c.Request().Context())
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	run, err := serviceReconcile.Retry(c.Request().Context(), admin.Actor(), c.Param("id"))
	return respond(c, run, err)
}
