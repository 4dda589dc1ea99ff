package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/trustcircle/internal/model"
	"github.com/d60-Lab/trustcircle/internal/testutil"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisContextCache_RoundTrip(t *testing.T) {
	_, client := setupRedis(t)
	c := NewRedisContextCache(client, 0)
	ctx := context.Background()

	_, found, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, found)

	want := &model.CircleContext{Inner: []int64{2}, Trusted: []int64{3}, Extended: []int64{4}}
	require.NoError(t, c.Put(ctx, 1, want))

	got, found, err := c.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, want, got)

	hits, misses := c.Counters()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestRedisContextCache_TTL(t *testing.T) {
	mr, client := setupRedis(t)
	c := NewRedisContextCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, 1, model.EmptyCircleContext()))
	assert.Equal(t, time.Minute, mr.TTL("circle:ctx:1"))

	mr.FastForward(2 * time.Minute)
	_, found, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisContextCache_InvalidateBoth(t *testing.T) {
	mr, client := setupRedis(t)
	c := NewRedisContextCache(client, 0)
	ctx := context.Background()

	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, c.Put(ctx, id, model.EmptyCircleContext()))
	}
	require.NoError(t, c.Invalidate(ctx, 1, 2))
	require.NoError(t, c.Invalidate(ctx))

	assert.False(t, mr.Exists("circle:ctx:1"))
	assert.False(t, mr.Exists("circle:ctx:2"))
	assert.True(t, mr.Exists("circle:ctx:3"))
}

func TestRedisContextCache_CorruptValueIsMiss(t *testing.T) {
	mr, client := setupRedis(t)
	c := NewRedisContextCache(client, 0)

	logs := testutil.ObserveLogs(t)

	require.NoError(t, mr.Set("circle:ctx:5", "{not json"))
	_, found, err := c.Get(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, found)

	warned := logs.FilterMessage("redis circle cache value corrupt, treating as miss").All()
	require.Len(t, warned, 1)
	assert.EqualValues(t, 5, warned[0].ContextMap()["user_id"])
	assert.Equal(t, "circle:ctx:5", warned[0].ContextMap()["key"])
}

func TestRedisContextCache_ConnectionError(t *testing.T) {
	mr, client := setupRedis(t)
	c := NewRedisContextCache(client, 0)
	mr.Close()

	_, _, err := c.Get(context.Background(), 1)
	assert.Error(t, err)
}
