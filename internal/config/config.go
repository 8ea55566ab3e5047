// Package config loads planner configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/rsned/production-planner/internal/logger"
)

// Config holds the application configuration
type Config struct {
	DBPath             string        `validate:"required"`
	LogLevel           string        `validate:"oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`
	LogFormat          string        `validate:"oneof=text json"`
	Environment        string        `validate:"oneof=dev staging prod test"`
	CatalogCacheSize   int           `validate:"gte=1"`
	CatalogCacheTTL    time.Duration `validate:"gt=0"`
	ResolveMaxDepth    int           `validate:"gte=1,lte=1024"`
	ResolveConcurrency int           `validate:"gte=1,lte=256"`
	MetricsAddr        string        `validate:"omitempty,hostname_port"`
	Version            string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:      getEnv(EnvDBPath, DefaultDBPath),
		LogLevel:    strings.ToLower(getEnv(EnvLogLevel, logger.LogLevelInfo)),
		LogFormat:   strings.ToLower(getEnv(EnvLogFormat, logger.LogFormatText)),
		Environment: getEnv(EnvEnvironment, logger.EnvironmentDev),
		MetricsAddr: getEnv(EnvMetricsAddr, ""),
		Version:     getEnv(EnvVersion, logger.DefaultVersion),
	}

	var err error
	if cfg.CatalogCacheSize, err = getEnvInt(EnvCatalogCacheSize, DefaultCatalogCacheSize); err != nil {
		return nil, err
	}
	if cfg.ResolveMaxDepth, err = getEnvInt(EnvResolveMaxDepth, DefaultResolveMaxDepth); err != nil {
		return nil, err
	}
	if cfg.ResolveConcurrency, err = getEnvInt(EnvResolveConcurrency, DefaultResolveConcurrency); err != nil {
		return nil, err
	}

	ttl := getEnv(EnvCatalogCacheTTL, DefaultCatalogCacheTTL.String())
	if cfg.CatalogCacheTTL, err = time.ParseDuration(ttl); err != nil {
		return nil, fmt.Errorf("invalid %s value: %w", EnvCatalogCacheTTL, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid configuration: %s fails %q", fe.Field(), fe.Tag())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Logger returns the logger configuration derived from c.
func (c *Config) Logger() logger.Config {
	return logger.Config{
		Level:       c.LogLevel,
		Format:      c.LogFormat,
		ServiceName: logger.DefaultServiceName,
		Version:     c.Version,
		Environment: c.Environment,
		AddSource:   c.Environment == logger.EnvironmentDev && c.LogLevel == logger.LogLevelDebug,
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
}
