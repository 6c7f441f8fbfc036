package main

import (
	"fmt"
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
		Name: "import",
		Commands: []*cli.Command{
			commandPledges(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandPledges() *cli.Command {
	return &cli.Command{
		Name:        "pledges",
		Description: "Load a legacy pledge export (email, campaign_id, amount, display_name, perk_name)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "file",
				Usage: "path to the CSV file",
			},
			&cli.StringFlag{
				Name:  "url",
				Usage: "URL serving the CSV file",
			},
		},
		Action: func(c *cli.Context) error {
			if (c.String("file") == "") == (c.String("url") == "") {
				return cli.Exit("exactly one of --file or --url is required", 1)
			}

			vs, err := env.EnvsRequired(
				"DB_DSN",
			)
			if err != nil {
				return err
			}

			injector := container.New(vs)
			service, err := do.Invoke[*services.ServiceImporter](injector)
			if err != nil {
				return err
			}
			logger := do.MustInvoke[*zap.Logger](injector)

			var report *models.ImportReport
			if path := c.String("file"); path != "" {
				report, err = service.ImportFile(c.Context, path)
			} else {
				report, err = service.ImportURL(c.Context, c.String("url"))
			}
			if err != nil {
				logger.Error("import failed", zap.Error(err))
				return err
			}

			for _, e := range report.Errors {
				fmt.Fprintf(c.App.ErrWriter, "line %d: %s\n", e.Line, e.Message)
			}
			fmt.Fprintf(c.App.Writer, "%d rows, %d imported, %d donors created\n", report.Rows, report.Imported, report.DonorsCreated)
			return nil
		},
	}
}
