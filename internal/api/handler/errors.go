package handler

import (
	"database/sql"
	"errors"
	"strconv"

	"donorhub/internal/datastore"
	"donorhub/internal/pkg/limiter"
	"donorhub/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
)

var invalidErrors = []error{
	services.ErrAssignLocked,
	services.ErrRankRebuildLocked,
	services.ErrRewardCampaignMismatch,
	services.ErrRewardInUse,
	services.ErrCampaignHasPledges,
	services.ErrNothingToAssign,
	services.ErrNothingToRetry,
	services.ErrNotAwaitingReward,
	services.ErrDonorExists,
	services.ErrNoObjectStore,
}

var validationErrors = []error{
	services.ErrValidation,
	services.ErrInvalidAmount,
	services.ErrInvalidConfidence,
	services.ErrUnknownActivity,
	services.ErrImportHeader,
}

// classify maps service errors to the response kinds of the API.
func classify(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, datastore.ErrNotAffected):
		return errorx.Wrap(err, errorx.NotExist)
	case errors.Is(err, services.ErrInvalidToken):
		return errorx.Wrap(err, errorx.Authn)
	case errors.Is(err, limiter.ErrRateLimited):
		return errorx.Wrap(err, errorx.RateLimiting)
	}

	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return errorx.Wrap(err, errorx.Validation)
		}
	}
	for _, target := range invalidErrors {
		if errors.Is(err, target) {
			return errorx.Wrap(err, errorx.Invalid)
		}
	}

	return errorx.Wrap(err, errorx.Service)
}

func respond(c echo.Context, data any, err error) error {
	if err != nil {
		return httpx.RestAbort(c, nil, classify(err))
	}
	return httpx.RestAbort(c, data, nil)
}

func paramID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errorx.Wrap(errors.New(name+" must be a positive integer"), errorx.Invalid)
	}
	return id, nil
}

func queryID(c echo.Context, name string) (*int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, errorx.Wrap(errors.New(name+" must be a positive integer"), errorx.Invalid)
	}
	return &id, nil
}

func queryInt(c echo.Context, name string) int {
	v, _ := strconv.Atoi(c.QueryParam(name))
	return v
}
