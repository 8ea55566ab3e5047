package config

import "time"

// Environment variable names
const (
	EnvDBPath             = "PLANNER_DB_PATH"
	EnvLogLevel           = "LOG_LEVEL"
	EnvLogFormat          = "LOG_FORMAT"
	EnvEnvironment        = "PLANNER_ENV"
	EnvCatalogCacheSize   = "CATALOG_CACHE_SIZE"
	EnvCatalogCacheTTL    = "CATALOG_CACHE_TTL"
	EnvResolveMaxDepth    = "RESOLVE_MAX_DEPTH"
	EnvResolveConcurrency = "RESOLVE_CONCURRENCY"
	EnvMetricsAddr        = "METRICS_ADDR"
	EnvVersion            = "PLANNER_VERSION"
)

// Defaults
const (
	DefaultDBPath             = "data/planner/planner.db"
	DefaultCatalogCacheSize   = 1024
	DefaultCatalogCacheTTL    = 10 * time.Minute
	DefaultResolveMaxDepth    = 64
	DefaultResolveConcurrency = 8
)
