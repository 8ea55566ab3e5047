package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultDBPath, cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultCatalogCacheSize, cfg.CatalogCacheSize)
	assert.Equal(t, DefaultCatalogCacheTTL, cfg.CatalogCacheTTL)
	assert.Equal(t, DefaultResolveMaxDepth, cfg.ResolveMaxDepth)
	assert.Equal(t, DefaultResolveConcurrency, cfg.ResolveConcurrency)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvDBPath, "/tmp/plan.db")
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvCatalogCacheTTL, "30s")
	t.Setenv(EnvResolveConcurrency, "2")
	t.Setenv(EnvMetricsAddr, "localhost:9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/plan.db", cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.CatalogCacheTTL)
	assert.Equal(t, 2, cfg.ResolveConcurrency)
	assert.Equal(t, "localhost:9090", cfg.MetricsAddr)
	assert.True(t, cfg.Logger().IsJSON())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv(EnvResolveMaxDepth, "zero")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvResolveMaxDepth)

	t.Setenv(EnvResolveMaxDepth, "0")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ResolveMaxDepth")

	t.Setenv(EnvResolveMaxDepth, "8")
	t.Setenv(EnvLogFormat, "xml")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LogFormat")
}
