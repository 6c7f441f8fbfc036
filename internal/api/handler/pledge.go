package handler

import (
	"errors"
	"strings"

	"donorhub/internal/models"
	"donorhub/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupPledge struct {
	container *do.Injector
}

func (gr *groupPledge) List(c echo.Context) error {
	servicePledge, err := do.Invoke[*services.ServicePledge](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	campaignID, err := queryID(c, "campaign_id")
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}
	donorID, err := queryID(c, "donor_id")
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	pledges, err := servicePledge.List(c.Request().Context(), models.PledgeFilter{
		CampaignID: campaignID,
		DonorID:    donorID,
		Unassigned: c.QueryParam("unassigned") == "true",
		Limit:      queryInt(c, "limit"),
		Offset:     queryInt(c, "offset"),
	})
	return respond(c, pledges, err)
}

func (gr *groupPledge) Show(c echo.Context) error {
	servicePledge, err := do.Invoke[*services.ServicePledge](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	id, err := paramID(c, "id")
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	pledge, err := servicePledge.Get(c.Request().Context(), id)
	return respond(c, pledge, err)
}

func (gr *groupPledge) Create(c echo.Context) error {
	servicePledge, err := do.Invoke[*services.ServicePledge](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	var payload models.PledgePayload
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	pledge, err := servicePledge.Create(c.Request().Context(), &payload)
	return respond(c, pledge, err)
}

// SetReward is the manual edit; reward_id null clears the reward.
func (gr *groupPledge) SetReward(c echo.Context) error {
	servicePledge, err := do.Invoke[*services.ServicePledge](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	id, err := paramID(c, "id")
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload models.PledgeRewardPayload
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	pledge, err := servicePledge.AssignReward(c.Request().Context(), id, payload.RewardID)
	return respond(c, pledge, err)
}

// Import accepts a CSV body, or a url query pointing at one.
func (gr *groupPledge) Import(c echo.Context) error {
	serviceImporter, err := do.Invoke[*services.ServiceImporter](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	if url := strings.TrimSpace(c.QueryParam("url")); url != "" {
		report, err := serviceImporter.ImportURL(ctx, url)
		return respond(c, report, err)
	}

	if c.Request().ContentLength == 0 {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("csv body or url is required"), errorx.Invalid))
	}

	report, err := serviceImporter.Import(ctx, c.Request().Body)
	return respond(c, report, err)
}
