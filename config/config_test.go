package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/storefront/secret"
	"github.com/jonwraymond/storefront/session"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "base_url: https://shop.example.com/api/\n")

	cfg, err := Load(NewViper(path))
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/api", cfg.BaseURL)
	assert.Equal(t, "file", cfg.Session.Backend)
	assert.NotEmpty(t, cfg.Session.Dir)
	assert.Equal(t, 5, cfg.Resilience.MaxFailures)
	assert.Equal(t, 30*time.Second, cfg.Resilience.ResetTimeout)
	assert.Equal(t, 500, cfg.Cache.Policy().MaxEntries)
	assert.Equal(t, "storefront", cfg.Observe.ServiceName)
	assert.Equal(t, 5*time.Second, cfg.Health.Timeout)

	oc := cfg.Observe.Observer("v1.2.3")
	assert.False(t, oc.Tracing.Enabled)
	assert.False(t, oc.Metrics.Enabled)
	assert.Equal(t, "warn", oc.Logging.Level)
	require.NoError(t, oc.Validate())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
base_url: https://shop.example.com
cache:
  stale_time: 1m
session:
  backend: redis
  redis:
    addr: localhost:6379
    ttl: 24h
observe:
  metrics_exporter: prometheus
`)
	t.Setenv("STOREFRONT_OBSERVE_LOG_LEVEL", "debug")
	t.Setenv("STOREFRONT_RESILIENCE_MAX_FAILURES", "2")

	cfg, err := Load(NewViper(path))
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.Cache.StaleTime)
	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Session.Redis.TTL)
	assert.Equal(t, "debug", cfg.Observe.LogLevel)
	assert.Equal(t, 2, cfg.Resilience.MaxFailures)
	assert.True(t, cfg.Observe.Observer("dev").Metrics.Enabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"bad url", "base_url: not a url\n", "Config.BaseURL must be a valid URL"},
		{"bad backend", "session:\n  backend: sqlite\n", "Config.Session.Backend must be one of: memory file redis"},
		{"redis without addr", "session:\n  backend: redis\n", "Config.Session.Redis.Addr is required"},
		{"sample out of range", "observe:\n  sample_pct: 2\n", "Config.Observe.SamplePct must be at most 1"},
		{"bad level", "observe:\n  log_level: loud\n", "Config.Observe.LogLevel must be one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(NewViper(writeConfig(t, tt.body)))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMissingConfigFileIsFine(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(NewViper(""))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/api", cfg.BaseURL)
}

func TestCredentials(t *testing.T) {
	creds, err := LoadCredentialsFrom(map[string]string{
		"STOREFRONT_SHOPPER_EMAIL":    "ann@example.com",
		"STOREFRONT_SHOPPER_PASSWORD": "pw",
		"STOREFRONT_ADMIN_EMAIL":      "root@example.com",
	})
	require.NoError(t, err)

	shopper, err := creds.For(session.ActorShopper)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", shopper.Email)
	require.NoError(t, shopper.Validate())

	admin, err := creds.For(session.ActorAdmin)
	require.NoError(t, err)
	assert.ErrorIs(t, admin.Validate(), session.ErrMissingCredentials)

	_, err = creds.For("guest")
	assert.ErrorIs(t, err, session.ErrUnknownActor)
}

func TestCredentialsResolveSecrets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor-pw"), []byte("v3ndor\n"), 0o600))
	t.Setenv("SF_TEST_SHOPPER_PW", "sh0pper")

	creds, err := LoadCredentialsFrom(map[string]string{
		"STOREFRONT_SHOPPER_EMAIL":    "ann@example.com",
		"STOREFRONT_SHOPPER_PASSWORD": "secretref:env:SF_TEST_SHOPPER_PW",
		"STOREFRONT_VENDOR_EMAIL":     "bob@example.com",
		"STOREFRONT_VENDOR_PASSWORD":  "secretref:file:" + filepath.Join(dir, "vendor-pw"),
	})
	require.NoError(t, err)

	resolved, err := creds.Resolve(context.Background(), secret.Default())
	require.NoError(t, err)
	assert.Equal(t, "sh0pper", resolved.Shopper.Password)
	assert.Equal(t, "v3ndor", resolved.Vendor.Password)
	assert.Equal(t, "secretref:env:SF_TEST_SHOPPER_PW", creds.Shopper.Password, "original is not modified")

	creds.Admin.Password = "secretref:env:SF_TEST_UNSET_PW"
	_, err = creds.Resolve(context.Background(), secret.Default())
	assert.ErrorIs(t, err, secret.ErrNotFound)
}

func TestConfigResolveSecrets(t *testing.T) {
	t.Setenv("SF_TEST_REDIS_PW", "r3dis")
	cfg := &Config{Session: SessionConfig{Redis: RedisConfig{Password: "${SF_TEST_REDIS_PW}"}}}

	require.NoError(t, cfg.ResolveSecrets(context.Background(), secret.Default()))
	assert.Equal(t, "r3dis", cfg.Session.Redis.Password)
}
