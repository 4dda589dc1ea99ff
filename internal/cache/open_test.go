package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/trustcircle/config"
	"github.com/d60-Lab/trustcircle/internal/model"
	"github.com/d60-Lab/trustcircle/internal/repository"
	"github.com/d60-Lab/trustcircle/internal/testutil"
)

func TestOpen_DB(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := &config.Config{Circle: config.CircleConfig{CacheBackend: "db"}}

	c, closeFn, err := Open(context.Background(), cfg, db)
	require.NoError(t, err)
	defer func() { _ = closeFn() }()
	assert.Implements(t, (*repository.CircleCacheRepository)(nil), c)
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{
		Circle: config.CircleConfig{CacheBackend: "redis"},
		Redis:  config.RedisConfig{Addr: mr.Addr()},
	}

	c, closeFn, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer func() { _ = closeFn() }()
	require.IsType(t, &RedisContextCache{}, c)

	ctx := context.Background()
	require.NoError(t, c.Put(ctx, 7, &model.CircleContext{Inner: []int64{1}, Trusted: []int64{}, Extended: []int64{}}))
	assert.True(t, mr.Exists("circle:ctx:7"))
}

func TestOpen_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	cfg := &config.Config{
		Circle: config.CircleConfig{CacheBackend: "redis"},
		Redis:  config.RedisConfig{Addr: addr},
	}

	_, _, err := Open(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, _, err := Open(context.Background(), &config.Config{Circle: config.CircleConfig{CacheBackend: "memcached"}}, nil)
	assert.Error(t, err)
}
