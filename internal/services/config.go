package services

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"donorhub/internal/datastore"
	"donorhub/internal/models"
	"donorhub/internal/pkg/caching"

	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceConfig struct {
	container          *do.Injector
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
}

func NewServiceConfig(container *do.Injector) (*ServiceConfig, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	readonlyCache, err := do.Invoke[caching.ReadOnlyCache](container)
	if err != nil {
		return nil, err
	}

	return &ServiceConfig{container, postgresDB, readonlyPostgresDB, cache, readonlyCache}, nil
}

// GetStringConfig returns the stored value of key, or defaultValue when the key
// is not set.
func (service *ServiceConfig) GetStringConfig(ctx context.Context, key string, defaultValue string) (string, error) {
	callback := func() (string, error) {
		config, err := datastore.GetConfigByKey(ctx, service.readonlyPostgresDB, key)
		if errors.Is(err, sql.ErrNoRows) {
			return defaultValue, nil
		}
		if err != nil {
			return defaultValue, err
		}
		return config.Value, nil
	}

	value, err := caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyConfig(key), CACHE_TTL_5_MINS, callback)
	if err != nil {
		return defaultValue, err
	}

	return value, nil
}

func (service *ServiceConfig) GetIntConfig(ctx context.Context, key string, defaultValue int) (int, error) {
	value, err := service.GetStringConfig(ctx, key, strconv.Itoa(defaultValue))
	if err != nil {
		return defaultValue, err
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, err
	}

	return intValue, nil
}

func (service *ServiceConfig) ListConfigs(ctx context.Context) ([]*models.Config, error) {
	return datastore.ListConfigs(ctx, service.readonlyPostgresDB)
}

// SetConfig only accepts the known tunables.
func (service *ServiceConfig) SetConfig(ctx context.Context, key string, value string) (*models.Config, error) {
	if _, ok := DefaultConfigs()[key]; !ok {
		return nil, validationError("unknown config key " + key)
	}

	config, err := datastore.UpsertConfig(ctx, service.postgresDB, key, value)
	if err != nil {
		return nil, err
	}

	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyConfig(key))
	return config, nil
}

// SeedDefaults inserts every default config row that is missing and returns
// the keys it added.
func (service *ServiceConfig) SeedDefaults(ctx context.Context) ([]string, error) {
	var added []string
	for key, value := range DefaultConfigs() {
		ok, err := datastore.InsertConfigDefault(ctx, service.postgresDB, key, value)
		if err != nil {
			return added, err
		}
		if ok {
			added = append(added, key)
		}
	}
	return added, nil
}
