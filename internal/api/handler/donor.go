package handler

import (
	"donorhub/internal/models"
	"donorhub/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupDonor struct {
	container *do.Injector
}

func (gr *groupDonor) List(c echo.Context) error {
	serviceDonor, err := do.Invoke[*services.ServiceDonor](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	donors, err := serviceDonor.List(c.Request().Context(), c.QueryParam("q"), queryInt(c, "limit"), queryInt(c, "offset"))
	return respond(c, donors, err)
}

func (gr *groupDonor) Show(c echo.Context) error {
	serviceDonor, err := do.Invoke[*services.ServiceDonor](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	id, err := paramID(c, "id")
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	donor, err := serviceDonor.Get(c.Request().Context(), id)
	return respond(c, donor, err)
}

func (gr *groupDonor) Create(c echo.Context) error {
	serviceDonor, err := do.Invoke[*services.ServiceDonor](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	var payload models.DonorPayload
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	donor, err := serviceDonor.Create(c.Request().Context(), &payload)
	return respond(c, donor, err)
}

func (gr *groupDonor) Update(c echo.Context) error {
	serviceDonor, err := do.Invoke[*services.ServiceDonor](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	id, err := paramID(c, "id")
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload models.DonorPayload
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	donor, err := serviceDonor.Update(c.Request().Context(), id, &payload)
	return respond(c, donor, err)
}

func (gr *groupDonor) Rank(c echo.Context) error {
	serviceDonor, err := do.Invoke[*services.ServiceDonor](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	id, err := paramID(c, "id")
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	rank, err := serviceDonor.Rank(c.Request().Context(), id)
	return respond(c, rank, err)
}

func (gr *groupDonor) AddActivity(c echo.Context) error {
	serviceDonor, err := do.Invoke[*services.ServiceDonor](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	id, err := paramID(c, "id")
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload models.ActivityPayload
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	activity, err := serviceDonor.AddActivity(c.Request().Context(), id, &payload)
	return respond(c, activity, err)
}
