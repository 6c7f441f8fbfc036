package handler

import (
	"errors"

	"donorhub/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

const HeaderAPIKey = "X-Api-Key"

type groupAuth struct {
	container *do.Injector
}

type tokenPayload struct {
	Actor string `json:"actor"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// Token trades the operator API key for a short lived admin token.
func (gr *groupAuth) Token(c echo.Context) error {
	authentication, err := do.Invoke[*services.Authentication](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	if !authentication.CheckAPIKey(c.Request().Header.Get(HeaderAPIKey)) {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("unauthorized"), errorx.Authn))
	}

	var payload tokenPayload
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	token, err := authentication.CreateToken(payload.Actor)
	if err != nil {
		return respond(c, nil, err)
	}

	return httpx.RestAbort(c, &tokenResponse{token, int(services.ADMIN_TOKEN_TTL.Seconds())}, nil)
}

func (gr *groupAuth) Me(c echo.Context) error {
	admin, err := ResolveAdmin(c.Request().Context())
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, map[string]string{"actor": admin.Actor(), "role": admin.Role}, nil)
}
