package handler

import (
	"context"
	"errors"
	"strings"

	"donorhub/internal/interfaces"
	"donorhub/internal/pkg/limiter"
	"donorhub/internal/services"

	"github.com/go-redis/redis_rate/v10"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
)

type ctxKey string

var ctxKeyAuthAdmin ctxKey = "AUTH_ADMIN"

func Authn(verifier interface {
	Validate(token string) (*services.AdminClaims, error)
},
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return next(c)
			}

			parts := strings.Split(header, "Bearer")
			if len(parts) != 2 {
				return next(c)
			}

			token := strings.TrimSpace(parts[1])
			if len(token) == 0 {
				return next(c)
			}

			claims, err := verifier.Validate(token)
			if err != nil {
				// although it's a client error, we don't want to detailed information
				//nolint:errcheck
				httpx.Abort(c, errorx.Wrap(errors.New("invalid access token"), errorx.Authn), -1)
				return nil
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, ctxKeyAuthAdmin, claims)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// RequireAdmin stops requests that Authn did not authenticate.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := ResolveAdmin(c.Request().Context()); err != nil {
				//nolint:errcheck
				httpx.Abort(c, err, -1)
				return nil
			}
			return next(c)
		}
	}
}

func ResolveAdmin(ctx context.Context) (*services.AdminClaims, error) {
	claims, ok := ctx.Value(ctxKeyAuthAdmin).(*services.AdminClaims)
	if !ok {
		return nil, errorx.Wrap(errors.New("missing session"), errorx.Authn)
	}
	return claims, nil
}

// RateLimit throttles authenticated admins per actor.
func RateLimit(l interfaces.Limiter, keyFn func(actor string) string, perMinute int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := ResolveAdmin(c.Request().Context())
			if err != nil {
				return next(c)
			}

			err = l.Allow(c.Request().Context(), keyFn(claims.Actor()), redis_rate.PerMinute(perMinute))
			if errors.Is(err, limiter.ErrRateLimited) {
				//nolint:errcheck
				httpx.Abort(c, errorx.Wrap(err, errorx.RateLimiting), -1)
				return nil
			}
			if err != nil {
				// fail open
				c.Logger().Warn("rate limiter unavailable: ", err)
			}

			return next(c)
		}
	}
}
