package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// STOREFRONT_BASE_URL or STOREFRONT_SESSION_BACKEND.
const EnvPrefix = "STOREFRONT"

// NewViper returns a viper instance reading configFile, or storefront.yaml
// from the working directory or ~/.storefront when configFile is empty,
// with environment overrides and defaults in place.
func NewViper(configFile string) *viper.Viper {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		v.SetConfigFile(found)
	} else {
		v.SetConfigName("storefront")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
	return v
}

func findConfigFile() string {
	home, _ := os.UserHomeDir()
	return findConfigFileInPaths([]string{".", filepath.Join(home, ".storefront")})
}

func findConfigFileInPaths(paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "storefront"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// DefaultSessionDir is where the file backend keeps identities.
func DefaultSessionDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "storefront", "sessions")
	}
	return filepath.Join(".storefront", "sessions")
}

// SetDefaults registers a default for every key. Keys without a default
// are invisible to environment overrides.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "http://localhost:3000/api")
	v.SetDefault("user_agent", "storefront-cli")

	v.SetDefault("cache.stale_time", "0s")
	v.SetDefault("cache.max_entries", 500)

	v.SetDefault("session.backend", "file")
	v.SetDefault("session.dir", DefaultSessionDir())
	v.SetDefault("session.redis.addr", "")
	v.SetDefault("session.redis.password", "")
	v.SetDefault("session.redis.db", 0)
	v.SetDefault("session.redis.prefix", "storefront:session:")
	v.SetDefault("session.redis.ttl", "0s")

	v.SetDefault("resilience.rate_limit", 20.0)
	v.SetDefault("resilience.burst", 10)
	v.SetDefault("resilience.max_concurrent", 8)
	v.SetDefault("resilience.max_wait", "2s")
	v.SetDefault("resilience.max_failures", 5)
	v.SetDefault("resilience.reset_timeout", "30s")

	v.SetDefault("observe.service_name", "storefront")
	v.SetDefault("observe.log_level", "warn")
	v.SetDefault("observe.tracing_exporter", "none")
	v.SetDefault("observe.sample_pct", 1.0)
	v.SetDefault("observe.metrics_exporter", "none")

	v.SetDefault("health.timeout", "5s")
}

// Load reads the configuration file if there is one, applies environment
// overrides and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}
