package handler

import (
	"net/http"

	"donorhub/internal/interfaces"
	"donorhub/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do"
)

type Config struct {
	Container *do.Injector
	Mode      string
	Origins   []string
}

func New(cfg *Config) (http.Handler, error) {
	r := echo.New()
	r.Pre(middleware.RemoveTrailingSlash())
	if cfg.Mode == "debug" {
		r.Debug = true
		pprof.Register(r)
	}

	r.JSONSerializer = httpx.SegmentJSONSerializer{}
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339}\t${method}\t${uri}\t${status}\t${latency_human}\n",
	}))
	r.Use(middleware.Recover())

	r.GET("", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	authentication, err := do.Invoke[*services.Authentication](cfg.Container)
	if err != nil {
		return nil, err
	}

	limiter, err := do.Invoke[interfaces.Limiter](cfg.Container)
	if err != nil {
		return nil, err
	}

	auth := groupAuth{cfg.Container}
	r.POST("/auth/token", auth.Token)

	routesAPIv1 := r.Group("/api/v1")
	{
		cors := middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.Origins,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowCredentials: true,
			MaxAge:           60 * 60,
		})

		routesAPIv1.Use(cors)
		routesAPIv1.Use(Authn(authentication)) // Authn will NOT terminate unauthenticated request.

		routesAdmin := routesAPIv1.Group("", RequireAdmin(), RateLimit(limiter, services.LimitKeyAdmin, services.ADMIN_RATE_LIMIT_PER_MINUTE))
		routesAdmin.GET("/me", auth.Me)

		cf := groupConfig{cfg.Container}
		routesAdmin.GET("/configs", cf.List)
		routesAdmin.PUT("/configs/:key", cf.Set)

		ca := groupCampaign{cfg.Container}
		routesAdmin.GET("/campaigns", ca.List)
		routesAdmin.POST("/campaigns", ca.Create)
		routesAdmin.GET("/campaigns/:id", ca.Show)
		routesAdmin.PUT("/campaigns/:id", ca.Update)
		routesAdmin.DELETE("/campaigns/:id", ca.Delete)
		routesAdmin.GET("/campaigns/:id/stats", ca.Stats)
		routesAdmin.POST("/campaigns/:id/recalculate", ca.Recalculate)
		routesAdmin.GET("/campaigns/:id/rewards", ca.Rewards)

		rw := groupReward{cfg.Container}
		routesAdmin.POST("/rewards", rw.Create)
		routesAdmin.GET("/rewards/:id", rw.Show)
		routesAdmin.PUT("/rewards/:id", rw.Update)
		routesAdmin.DELETE("/rewards/:id", rw.Delete)

		p := groupPledge{cfg.Container}
		routesAdmin.GET("/pledges", p.List)
		routesAdmin.POST("/pledges", p.Create)
		routesAdmin.POST("/pledges/import", p.Import)
		routesAdmin.GET("/pledges/:id", p.Show)
		routesAdmin.PUT("/pledges/:id/reward", p.SetReward)

		d := groupDonor{cfg.Container}
		routesAdmin.GET("/donors", d.List)
		routesAdmin.POST("/donors", d.Create)
		routesAdmin.GET("/donors/:id", d.Show)
		routesAdmin.PUT("/donors/:id", d.Update)
		routesAdmin.GET("/donors/:id/rank", d.Rank)
		routesAdmin.POST("/donors/:id/activities", d.AddActivity)

		routesAPIv1Reconcile := routesAdmin.Group("/reconcile")
		{
			rc := groupReconcile{cfg.Container}
			routesAPIv1Reconcile.GET("/matches", rc.Matches)
			routesAPIv1Reconcile.GET("/matches/export", rc.ExportMatches)
			routesAPIv1Reconcile.GET("/selection", rc.Selection)
			routesAPIv1Reconcile.POST("/selection/toggle/:pledge", rc.Toggle)
			routesAPIv1Reconcile.POST("/selection/confidence/:level", rc.SelectConfidence)
			routesAPIv1Reconcile.DELETE("/selection", rc.ClearSelection)
			routesAPIv1Reconcile.GET("/runs", rc.Runs)
			routesAPIv1Reconcile.GET("/runs/:id", rc.Run)
			routesAPIv1Reconcile.GET("/runs/:id/export", rc.ExportRun)

			write := routesAPIv1Reconcile.Group("")
			write.Use(RateLimit(limiter, services.LimitKeyAssign, services.ASSIGN_RATE_LIMIT_PER_MINUTE))
			write.POST("/assign", rc.Assign)
			write.POST("/runs/:id/retry", rc.Retry)
		}

		l := groupLeaderboard{cfg.Container}
		routesAdmin.GET("/leaderboard", l.GetLeaderboard)
		routesAdmin.POST("/leaderboard/rebuild", l.Rebuild)
	}
	routesAPIv1.GET("", Hello)

	return r, nil
}

func Hello(c echo.Context) error {
	return httpx.RestAbort(c, "hello world", nil)
}
