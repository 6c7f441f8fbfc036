package main

import (
	"bytes"
	"io"
	"log"
	"os"

	"donorhub/internal/container"
	"donorhub/internal/models"
	"donorhub/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/samber/do"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

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
		Name:  "export",
		Usage: "write reconciliation reports as CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "file to write, stdout when empty",
			},
			&cli.BoolFlag{
				Name:  "s3",
				Usage: "upload to REPORT_BUCKET instead of writing locally",
			},
		},
		Commands: []*cli.Command{
			commandMatches(),
			commandRun(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newService() (*services.ServiceReport, *zap.Logger, error) {
	vs, err := env.EnvsRequired(
		"DB_DSN",
	)
	if err != nil {
		return nil, nil, err
	}

	injector := container.New(vs)
	service, err := do.Invoke[*services.ServiceReport](injector)
	if err != nil {
		return nil, nil, err
	}
	return service, do.MustInvoke[*zap.Logger](injector), nil
}

// write renders the report into memory first so a failed query leaves no
// partial file behind.
func write(c *cli.Context, render func(w io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}

	path := c.String("output")
	if path == "" {
		_, err := c.App.Writer.Write(buf.Bytes())
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func commandMatches() *cli.Command {
	return &cli.Command{
		Name:  "matches",
		Usage: "current pledge to reward matches",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "confidence",
				Usage: "high, medium, low or none",
			},
			&cli.Int64Flag{
				Name:  "campaign",
				Usage: "only pledges of this campaign",
			},
		},
		Action: func(c *cli.Context) error {
			service, logger, err := newService()
			if err != nil {
				return err
			}

			filter := models.MatchFilter{Confidence: c.String("confidence")}
			if c.IsSet("campaign") {
				id := c.Int64("campaign")
				filter.CampaignID = &id
			}

			if c.Bool("s3") {
				location, err := service.UploadMatches(c.Context, filter)
				if err != nil {
					return err
				}
				logger.Info("matches exported", zap.String("location", location))
				return nil
			}

			return write(c, func(w io.Writer) error {
				return service.Matches(c.Context, w, filter)
			})
		},
	}
}

func commandRun() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "per pledge results of an assignment run",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			service, logger, err := newService()
			if err != nil {
				return err
			}

			if c.Bool("s3") {
				location, err := service.UploadRun(c.Context, c.String("id"))
				if err != nil {
					return err
				}
				logger.Info("run exported", zap.String("location", location))
				return nil
			}

			return write(c, func(w io.Writer) error {
				return service.Run(c.Context, w, c.String("id"))
			})
		},
	}
}
