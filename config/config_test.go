package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Circle.MaxHops)
	assert.Equal(t, "db", cfg.Circle.CacheBackend)
	assert.Equal(t, 20, cfg.Feed.DefaultPerPage)
	assert.Equal(t, 100, cfg.Feed.MaxPerPage)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
}

func TestLoad_EnvOverride(t *testing.T) {
	chdirTemp(t)
	t.Setenv("TRUSTCIRCLE_CIRCLE_CACHE_BACKEND", "redis")
	t.Setenv("TRUSTCIRCLE_FEED_DEFAULT_PER_PAGE", "10")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Circle.CacheBackend)
	assert.Equal(t, 10, cfg.Feed.DefaultPerPage)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	chdirTemp(t)
	t.Setenv("TRUSTCIRCLE_CIRCLE_CACHE_BACKEND", "memcached")

	_, err := Load()
	assert.Error(t, err)
}

// chdirTemp 切到空目录，避免读到仓库里的 config.yaml
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
