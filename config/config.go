// Package config loads the storefront client configuration from a YAML
// file, STOREFRONT_* environment variables and defaults.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/storefront/cache"
	"github.com/jonwraymond/storefront/observe"
	"github.com/jonwraymond/storefront/resilience"
	"github.com/jonwraymond/storefront/secret"
)

// Config is the full client configuration.
type Config struct {
	BaseURL    string            `mapstructure:"base_url" validate:"required,url"`
	UserAgent  string            `mapstructure:"user_agent"`
	Cache      CacheConfig       `mapstructure:"cache"`
	Session    SessionConfig     `mapstructure:"session"`
	Resilience resilience.Config `mapstructure:"resilience"`
	Observe    ObserveConfig     `mapstructure:"observe"`
	Health     HealthConfig      `mapstructure:"health"`
}

// CacheConfig maps to cache.Policy.
type CacheConfig struct {
	StaleTime  time.Duration `mapstructure:"stale_time" validate:"gte=0"`
	MaxEntries int           `mapstructure:"max_entries" validate:"gte=0"`
}

// Policy returns the cache policy.
func (c CacheConfig) Policy() cache.Policy {
	return cache.Policy{StaleTime: c.StaleTime, MaxEntries: c.MaxEntries}
}

// SessionConfig selects where session identities persist.
type SessionConfig struct {
	Backend string      `mapstructure:"backend" validate:"oneof=memory file redis"`
	Dir     string      `mapstructure:"dir" validate:"required_if=Backend file"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"gte=0"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// ObserveConfig maps to observe.Config.
type ObserveConfig struct {
	ServiceName     string  `mapstructure:"service_name" validate:"required"`
	LogLevel        string  `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	TracingExporter string  `mapstructure:"tracing_exporter" validate:"oneof=none stdout otlp"`
	SamplePct       float64 `mapstructure:"sample_pct" validate:"gte=0,lte=1"`
	MetricsExporter string  `mapstructure:"metrics_exporter" validate:"oneof=none stdout otlp prometheus"`
}

// Observer returns the observe configuration for version.
func (c ObserveConfig) Observer(version string) observe.Config {
	return observe.Config{
		ServiceName: c.ServiceName,
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   c.TracingExporter != "none",
			Exporter:  c.TracingExporter,
			SamplePct: c.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.MetricsExporter != "none",
			Exporter: c.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.LogLevel,
		},
	}
}

// HealthConfig bounds the health command.
type HealthConfig struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// ResolveSecrets replaces secret references in the secret-bearing fields.
func (c *Config) ResolveSecrets(ctx context.Context, r *secret.Resolver) error {
	if err := r.Resolve(ctx, &c.Session.Redis.Password); err != nil {
		return fmt.Errorf("session.redis.password: %w", err)
	}
	return nil
}
