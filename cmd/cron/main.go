package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"donorhub/internal/container"

	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

type CronJob interface {
	Start(cronRunner *cron.Cron) error
}

func main() {
	app := &cli.App{
		Name: "cronjob",
		Commands: []*cli.Command{
			commandCronjob(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandCronjob() *cli.Command {
	return &cli.Command{
		Name: "cron",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "now",
				Usage: "rebuild the leaderboard once before scheduling",
			},
		},
		Action: func(c *cli.Context) error {
			vs, err := env.EnvsRequired(
				"DB_DSN",
			)
			if err != nil {
				return err
			}

			injector := container.New(vs)
			rankJob, err := NewRankJob(injector)
			if err != nil {
				return err
			}

			cronRunner := cron.New()
			jobs := []CronJob{rankJob}
			for _, job := range jobs {
				if err := job.Start(cronRunner); err != nil {
					return err
				}
			}

			if c.Bool("now") {
				rankJob.Run()
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cronRunner.Start()
			<-ctx.Done()
			<-cronRunner.Stop().Done()

			//nolint:errcheck
			injector.Shutdown()
			return nil
		},
	}
}
