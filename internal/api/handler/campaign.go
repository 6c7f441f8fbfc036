package handler

import (
	"donorhub/internal/models"
	"donorhub/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupCampaign struct {
	container *do.Injector
}

func (gr *groupCampaign) List(c echo.Context) error {
	serviceCampaign, err := do.Invoke[*services.ServiceCampaign](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	campaigns, err := serviceCampaign.List(c.Request().Context(), c.QueryParam("active") == "true")
	return respond(c, campaigns, err)
}

func (gr *groupCampaign) Show(c echo.Context) error {
	serviceCampaign, err := do.Invoke[*services.ServiceCampaign](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	id, err := paramID(c, "id")
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	campaign, err := serviceCampaign.Get(c.Request().Context(), id)
	return respond(c, campaign, err)
}

func (gr *groupCampaign) Create(c echo.Context) error {
	serviceCampaign, err := do.Invoke[*services.ServiceCampaign](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	var payload models.CampaignPayload
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	campaign, err := serviceCampaign.Create(c.Request().Context(), &payload)
	return respond(c, campaign, err)
}

func (gr *groupCampaign) Update(c echo.Context) error {
	serviceCampaign, err := do.Invoke[*services.ServiceCampaign](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	id, err := paramID(c, "id")
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload models.CampaignPayload
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	campaign, err := serviceCampaign.Update(c.Request().Context(), id, &payload)
	return respond(c, campaign, err)
}

func (gr *groupCampaign) Delete(c echo.Context) error {
	serviceCampaign, err := do.Invoke[*services.ServiceCampaign](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	id, err := paramID(c, "id")
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	err = serviceCampaign.Delete(c.Request().Context(), id)
	return respond(c, "ok", err)
}

func (gr *groupCampaign) Stats(c echo.Context) error {
	serviceCampaign, err := do.Invoke[*services.ServiceCampaign](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	id, err := paramID(c, "id")
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	stats, err := serviceCampaign.Stats(c.Request().Context(), id)
	return respond(c, stats, err)
}

func (gr *groupCampaign) Recalculate(c echo.Context) error {
	serviceCampaign, err := do.Invoke[*services.ServiceCampaign](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	id, err := paramID(c, "id")
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	campaign, err := serviceCampaign.Recalculate(c.Request().Context(), id)
	return respond(c, campaign, err)
}

func (gr *groupCampaign) Rewards(c echo.Context) error {
	serviceReward, err := do.Invoke[*services.ServiceReward](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	id, err := paramID(c, "id")
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	rewards, err := serviceReward.ListByCampaign(c.Request().Context(), id)
	return respond(c, rewards, err)
}
