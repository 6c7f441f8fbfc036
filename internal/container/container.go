package container

import (
	"context"
	"database/sql"
	"os"
	"strconv"

	"donorhub/internal/interfaces"
	"donorhub/internal/pkg/caching"
	"donorhub/internal/pkg/limiter"
	"donorhub/internal/pkg/logger"
	"donorhub/internal/pkg/storage"
	"donorhub/internal/services"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"
)

// Envs read by New. Only DB_DSN is required everywhere; commands check their
// own extra requirements with env.EnvsRequired.
var optionalEnvs = []string{
	"DB_PASSWORD",
	"DB_DSN_READONLY",
	"DB_PASSWORD_READONLY",
	"REDIS_URL",
	"REDIS_DB",
	"REDIS_CACHE",
	"REDIS_CACHE_READONLY",
	"REDIS_LIMITER",
	"REDIS_MUTEX",
	"API_MODE",
	"API_ORIGINS",
	"BOT_TOKEN",
	"ADMIN_CHAT_ID",
	"ADMIN_API_KEY",
	"JWT_SECRET",
	"LOG_LEVEL",
	"AWS_REGION",
	"REPORT_BUCKET",
}

// New builds the injector shared by every command.
func New(vs map[string]string) *do.Injector {
	injector := do.New()

	for _, k := range optionalEnvs {
		if _, ok := vs[k]; !ok {
			vs[k] = os.Getenv(k)
		}
	}
	if vs["API_MODE"] == "" {
		vs["API_MODE"] = "production"
	}
	if vs["API_ORIGINS"] == "" {
		vs["API_ORIGINS"] = "*"
	}
	if vs["DB_DSN_READONLY"] == "" {
		vs["DB_DSN_READONLY"] = vs["DB_DSN"]
		vs["DB_PASSWORD_READONLY"] = vs["DB_PASSWORD"]
	}

	do.ProvideNamedValue(injector, "envs", vs)

	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		return logger.New(vs["LOG_LEVEL"])
	})

	do.Provide(injector, func(i *do.Injector) (*bun.DB, error) {
		return openPostgres(vs["DB_DSN"], vs["DB_PASSWORD"]), nil
	})

	do.ProvideNamed(injector, "db-readonly", func(i *do.Injector) (*bun.DB, error) {
		return openPostgres(vs["DB_DSN_READONLY"], vs["DB_PASSWORD_READONLY"]), nil
	})

	do.ProvideNamed(injector, "redis-db", redisProvider(vs, false, "REDIS_DB"))
	do.ProvideNamed(injector, "redis-cache", redisProvider(vs, false, "REDIS_CACHE"))
	do.ProvideNamed(injector, "redis-cache-readonly", redisProvider(vs, true, "REDIS_CACHE_READONLY", "REDIS_CACHE"))
	do.ProvideNamed(injector, "redis-limiter", redisProvider(vs, false, "REDIS_LIMITER"))
	do.ProvideNamed(injector, "redis-mutex", redisProvider(vs, false, "REDIS_MUTEX"))

	do.Provide(injector, func(i *do.Injector) (caching.Cache, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-cache")
		if err != nil {
			return nil, err
		}

		return caching.NewCacheRedis(dbRedis, false)
	})

	do.Provide(injector, func(i *do.Injector) (caching.ReadOnlyCache, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-cache-readonly")
		if err != nil {
			return nil, err
		}

		return caching.NewCacheRedis(dbRedis, false)
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Limiter, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-limiter")
		if err != nil {
			return nil, err
		}

		return limiter.NewLimiter(dbRedis)
	})

	do.Provide(injector, func(i *do.Injector) (*redsync.Redsync, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-mutex")
		if err != nil {
			return nil, err
		}

		pool := goredis.NewPool(dbRedis)
		return redsync.New(pool), nil
	})

	if vs["BOT_TOKEN"] != "" {
		do.Provide(injector, func(i *do.Injector) (interfaces.Notifier, error) {
			log, err := do.Invoke[*zap.Logger](i)
			if err != nil {
				return nil, err
			}

			chatID, err := strconv.ParseInt(vs["ADMIN_CHAT_ID"], 10, 64)
			if err != nil {
				log.Warn("ADMIN_CHAT_ID is not a chat id, run summaries are disabled", zap.String("value", vs["ADMIN_CHAT_ID"]))
				chatID = 0
			}

			return services.NewBot(vs["BOT_TOKEN"], chatID, log)
		})
	}

	if vs["REPORT_BUCKET"] != "" {
		do.Provide(injector, func(i *do.Injector) (interfaces.ObjectStore, error) {
			return storage.NewS3Store(context.Background(), vs["AWS_REGION"], vs["REPORT_BUCKET"])
		})
	}

	do.Provide(injector, func(i *do.Injector) (*services.Authentication, error) {
		return services.NewAuthentication(vs["JWT_SECRET"], vs["ADMIN_API_KEY"])
	})

	do.Provide(injector, services.NewServiceConfig)
	do.Provide(injector, services.NewServiceCampaign)
	do.Provide(injector, services.NewServiceReward)
	do.Provide(injector, services.NewServicePledge)
	do.Provide(injector, services.NewServiceDonor)
	do.Provide(injector, services.NewServiceRanking)
	do.Provide(injector, services.NewServiceReconcile)
	do.Provide(injector, services.NewServiceImporter)
	do.Provide(injector, services.NewServiceReport)

	return injector
}

func openPostgres(dsn, password string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithPassword(password),
	))

	return bun.NewDB(sqldb, pgdialect.New())
}

// redisProvider resolves a Redis role from the first key that is set, then
// REDIS_URL. CLUSTER_<key> takes precedence and selects a cluster client.
func redisProvider(vs map[string]string, readOnly bool, keys ...string) func(*do.Injector) (redis.UniversalClient, error) {
	return func(i *do.Injector) (redis.UniversalClient, error) {
		for _, key := range keys {
			clusterURL := os.Getenv("CLUSTER_" + key)
			if clusterURL == "" {
				continue
			}
			clusterOpts, err := redis.ParseClusterURL(clusterURL)
			if err != nil {
				return nil, err
			}
			clusterOpts.ReadOnly = readOnly
			return redis.NewClusterClient(clusterOpts), nil
		}

		url := vs["REDIS_URL"]
		for _, key := range keys {
			if vs[key] != "" {
				url = vs[key]
				break
			}
		}

		return db.InitRedis(&db.RedisConfig{
			URL: url,
		})
	}
}
