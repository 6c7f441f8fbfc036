package caching

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/vmihailenco/msgpack/v5"
)

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

// CacheMemory is a process-local Cache used by commands that run without
// Redis and by tests. Values are msgpack encoded like the Redis cache.
type CacheMemory struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

func NewCacheMemory() *CacheMemory {
	return &CacheMemory{items: map[string]memoryItem{}, now: time.Now}
}

func (c *CacheMemory) Get(ctx context.Context, key string, target any) error {
	c.mu.Lock()
	item, ok := c.items[key]
	if ok && !item.expiresAt.IsZero() && c.now().After(item.expiresAt) {
		delete(c.items, key)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		return cache.ErrCacheMiss
	}
	return msgpack.Unmarshal(item.data, target)
}

func (c *CacheMemory) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return err
	}

	item := memoryItem{data: data}
	if ttl > 0 {
		item.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.items[key] = item
	c.mu.Unlock()
	return nil
}

func (c *CacheMemory) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}
