package main

import (
	"fmt"
	"log"
	"os"

	"donorhub/internal/container"
	"donorhub/internal/models"
	"donorhub/internal/reconcile"
	"donorhub/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/samber/do"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const CLI_ACTOR = "cli"

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	app := &cli.App{
		Name:  "reconcile",
		Usage: "match pledges to rewards without the admin UI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "actor",
				Value: CLI_ACTOR,
				Usage: "name recorded on assignment runs",
			},
		},
		Commands: []*cli.Command{
			commandPreview(),
			commandAssign(),
			commandRetry(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newService() (*services.ServiceReconcile, *zap.Logger, error) {
	vs, err := env.EnvsRequired(
		"DB_DSN",
	)
	if err != nil {
		return nil, nil, err
	}

	injector := container.New(vs)
	service, err := do.Invoke[*services.ServiceReconcile](injector)
	if err != nil {
		return nil, nil, err
	}
	return service, do.MustInvoke[*zap.Logger](injector), nil
}

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "confidence",
			Usage: "high, medium, low or none",
		},
		&cli.Int64Flag{
			Name:  "campaign",
			Usage: "only pledges of this campaign",
		},
	}
}

func filterFromFlags(c *cli.Context) models.MatchFilter {
	filter := models.MatchFilter{Confidence: c.String("confidence")}
	if c.IsSet("campaign") {
		id := c.Int64("campaign")
		filter.CampaignID = &id
	}
	return filter
}

func commandPreview() *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "print the current matches as CSV",
		Flags: filterFlags(),
		Action: func(c *cli.Context) error {
			service, logger, err := newService()
			if err != nil {
				return err
			}

			views, err := service.Matches(c.Context, filterFromFlags(c))
			if err != nil {
				return err
			}

			counts := map[reconcile.Confidence]int{}
			for _, v := range views {
				counts[v.Confidence]++
			}
			logger.Info("matches loaded",
				zap.Int("total", len(views)),
				zap.Int("high", counts[reconcile.ConfidenceHigh]),
				zap.Int("medium", counts[reconcile.ConfidenceMedium]),
				zap.Int("low", counts[reconcile.ConfidenceLow]),
				zap.Int("none", counts[reconcile.ConfidenceNone]))

			return services.WriteMatchesCSV(c.App.Writer, views)
		},
	}
}

func commandAssign() *cli.Command {
	return &cli.Command{
		Name:  "assign",
		Usage: "assign suggested rewards by confidence level or pledge id",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "confidence",
				Usage: "assign every pledge matched at this level",
			},
			&cli.Int64SliceFlag{
				Name:  "pledge",
				Usage: "pledge ids to assign, repeatable",
			},
		},
		Action: func(c *cli.Context) error {
			payload := &models.AssignPayload{
				PledgeIDs:  c.Int64Slice("pledge"),
				Confidence: c.String("confidence"),
			}
			if len(payload.PledgeIDs) == 0 && payload.Confidence == "" {
				return cli.Exit("either --confidence or --pledge is required", 1)
			}

			service, logger, err := newService()
			if err != nil {
				return err
			}

			run, err := service.Assign(c.Context, c.String("actor"), payload)
			if err != nil {
				if run != nil {
					// applied but not recorded
					//nolint:errcheck
					printRun(c, logger, run)
				}
				return err
			}
			return printRun(c, logger, run)
		},
	}
}

func commandRetry() *cli.Command {
	return &cli.Command{
		Name:  "retry",
		Usage: "retry the failed items of a run",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "run",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			service, logger, err := newService()
			if err != nil {
				return err
			}

			run, err := service.Retry(c.Context, c.String("actor"), c.String("run"))
			if err != nil {
				if run != nil {
					// applied but not recorded
					//nolint:errcheck
					printRun(c, logger, run)
				}
				return err
			}
			return printRun(c, logger, run)
		},
	}
}

func printRun(c *cli.Context, logger *zap.Logger, run *models.AssignmentRun) error {
	logger.Info("assignment finished",
		zap.String("run_id", run.ID),
		zap.String("status", run.Status),
		zap.Int("succeeded", run.Succeeded),
		zap.Int("failed", run.Failed),
		zap.Int("skipped", run.Skipped))

	for _, r := range run.Results {
		if r.Error != "" {
			fmt.Fprintf(c.App.ErrWriter, "pledge %d: %s\n", r.PledgeID, r.Error)
		}
	}
	return services.WriteRunCSV(c.App.Writer, run)
}
