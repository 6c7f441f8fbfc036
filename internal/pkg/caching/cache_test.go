package caching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string
	Count int
}

func TestUseCache_LoadsOnceThenHits(t *testing.T) {
	ctx := context.Background()
	c := NewCacheMemory()
	calls := 0
	load := func() (*payload, error) {
		calls++
		return &payload{Name: "garden", Count: 3}, nil
	}

	first, err := UseCache(ctx, c, "k", time.Minute, load)
	require.NoError(t, err)
	second, err := UseCache(ctx, c, "k", time.Minute, load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestUseCache_LoadErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	c := NewCacheMemory()
	boom := errors.New("boom")

	_, err := UseCache(ctx, c, "k", time.Minute, func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, err := UseCache(ctx, c, "k", time.Minute, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestCacheMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewCacheMemory()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", "v", time.Second))
	var got string
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, "v", got)

	now = now.Add(2 * time.Second)
	assert.True(t, IsMiss(c.Get(ctx, "k", &got)))
}

func TestCacheMemory_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewCacheMemory()
	require.NoError(t, c.Set(ctx, "k", 1, 0))

	require.NoError(t, c.Delete(ctx, "k"))

	var got int
	assert.True(t, IsMiss(c.Get(ctx, "k", &got)))
}
