package caching

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type ReadOnlyCache interface {
	Get(ctx context.Context, key string, target any) error
}

type Cache interface {
	ReadOnlyCache
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

func IsMiss(err error) bool {
	return errors.Is(err, cache.ErrCacheMiss)
}

// UseCache reads key from c and falls back to load on a miss, storing the
// loaded value for ttl.
func UseCache[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	return UseCacheWithRO(ctx, c, c, key, ttl, load)
}

// UseCacheWithRO reads through the replica cache and writes to the primary.
func UseCacheWithRO[T any](ctx context.Context, ro ReadOnlyCache, c Cache, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var v T
	err := ro.Get(ctx, key, &v)
	if !IsMiss(err) {
		return v, err
	}

	v, err = load()
	if err != nil {
		return v, err
	}

	// a failed write only costs a reload next time
	//nolint:errcheck
	c.Set(ctx, key, v, ttl)
	return v, nil
}

type CacheRedis struct {
	instance *cache.Cache
}

func (c *CacheRedis) Get(ctx context.Context, key string, target any) error {
	return c.instance.Get(ctx, key, target)
}

func (c *CacheRedis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.instance.Set(&cache.Item{
		Ctx:   ctx,
		Key:   key,
		Value: value,
		TTL:   ttl,
	})
}

func (c *CacheRedis) Delete(ctx context.Context, key string) error {
	err := c.instance.Delete(ctx, key)
	if IsMiss(err) {
		return nil
	}
	return err
}

func NewCacheRedis(client redis.UniversalClient, withLocalCache bool) (*CacheRedis, error) {
	var localCache cache.LocalCache
	if withLocalCache {
		localCache = cache.NewTinyLFU(10000, time.Minute)
	}
	return &CacheRedis{cache.New(&cache.Options{
		Redis:      client,
		LocalCache: localCache,
	})}, nil
}

type scanner interface {
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// DeleteKeys removes every key matching pattern, on each master when client is
// a cluster.
func DeleteKeys(ctx context.Context, client redis.UniversalClient, pattern string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cluster, ok := client.(*redis.ClusterClient); ok {
		return cluster.ForEachMaster(ctx, func(ctx context.Context, c *redis.Client) error {
			return deleteKeys(ctx, c, pattern, logger)
		})
	}
	return deleteKeys(ctx, client, pattern, logger)
}

func deleteKeys(ctx context.Context, client scanner, pattern string, logger *zap.Logger) error {
	var cursor uint64
	for {
		keys, next, err := client.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			logger.Debug("deleted cache keys", zap.String("pattern", pattern), zap.Int("count", len(keys)))
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
