package handler

import (
	"donorhub/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupLeaderboard struct {
	container *do.Injector
}

func (gr *groupLeaderboard) GetLeaderboard(c echo.Context) error {
	serviceRanking, err := do.Invoke[*services.ServiceRanking](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	donorID, err := queryID(c, "donor_id")
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	leaderboard, err := serviceRanking.Leaderboard(c.Request().Context(), donorID)
	return respond(c, leaderboard, err)
}

func (gr *groupLeaderboard) Rebuild(c echo.Context) error {
	serviceRanking, err := do.Invoke[*services.ServiceRanking](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	n, err := serviceRanking.Rebuild(c.Request().Context())
	return respond(c, map[string]int{"donors": n}, err)
}
