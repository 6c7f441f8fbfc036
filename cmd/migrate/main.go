package main

import (
	"context"
	"log"
	"os"
	"sort"

	"donorhub/internal/container"
	"donorhub/internal/datastore"
	"donorhub/internal/pkg/caching"
	"donorhub/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
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
		Name: "migrate",
		Commands: []*cli.Command{
			commandMigration(),
			commandConfigMigration(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newContainer() (*do.Injector, error) {
	vs, err := env.EnvsRequired(
		"DB_DSN",
	)
	if err != nil {
		return nil, err
	}
	return container.New(vs), nil
}

func commandMigration() *cli.Command {
	return &cli.Command{
		Name:        "migrate",
		Description: "Create tables and indexes",
		Action: func(c *cli.Context) error {
			injector, err := newContainer()
			if err != nil {
				return err
			}

			db, err := do.Invoke[*bun.DB](injector)
			if err != nil {
				return err
			}
			defer db.Close()

			logger := do.MustInvoke[*zap.Logger](injector)
			if err := datastore.CreateTables(c.Context, db); err != nil {
				logger.Error("migration failed", zap.Error(err))
				return err
			}

			logger.Info("migration success")
			return nil
		},
	}
}

func commandConfigMigration() *cli.Command {
	return &cli.Command{
		Name:        "seed-config",
		Description: "Insert missing default configs and drop the cached values",
		Action: func(c *cli.Context) error {
			injector, err := newContainer()
			if err != nil {
				return err
			}

			serviceConfig, err := do.Invoke[*services.ServiceConfig](injector)
			if err != nil {
				return err
			}
			logger := do.MustInvoke[*zap.Logger](injector)

			added, err := serviceConfig.SeedDefaults(c.Context)
			if err != nil {
				return err
			}
			sort.Strings(added)
			logger.Info("default configs seeded", zap.Strings("added", added))

			return dropConfigCache(c.Context, injector, logger)
		},
	}
}

func dropConfigCache(ctx context.Context, injector *do.Injector, logger *zap.Logger) error {
	dbRedis, err := do.InvokeNamed[redis.UniversalClient](injector, "redis-cache")
	if err != nil {
		return err
	}

	return caching.DeleteKeys(ctx, dbRedis, services.DBKeyConfigPattern(), logger)
}
