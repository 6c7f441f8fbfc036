package handler

import (
	"donorhub/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupConfig struct {
	container *do.Injector
}

type configPayload struct {
	Value string `json:"value"`
}

func (gr *groupConfig) List(c echo.Context) error {
	serviceConfig, err := do.Invoke[*services.ServiceConfig](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	configs, err := serviceConfig.ListConfigs(c.Request().Context())
	return respond(c, configs, err)
}

func (gr *groupConfig) Set(c echo.Context) error {
	serviceConfig, err := do.Invoke[*services.ServiceConfig](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	var payload configPayload
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	config, err := serviceConfig.SetConfig(c.Request().Context(), c.Param("key"), payload.Value)
	return respond(c, config, err)
}
