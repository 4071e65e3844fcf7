package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(content), 0o644)
	require.NoError(t, err)
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 0\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 300, cfg.Billing.PlanCacheTTLSeconds)
	assert.Equal(t, 14, cfg.Billing.TrialDays)
	assert.Equal(t, "cleanbid_session", cfg.Auth.CookieName)
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  host: 0.0.0.0
database:
  url: postgres://app:app@db:5432/cleanbid?sslmode=disable
tracking:
  base_url: https://track.cleanbid.io
  rate_per_minute: 120
pdf:
  renderer_url: http://renderer:3000/render
  timeout_seconds: 45
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 120, cfg.Tracking.RatePerMinute)
	assert.Equal(t, float64(45), cfg.PDF.Timeout().Seconds())
	assert.Equal(t, "https://track.cleanbid.io", cfg.Tracking.BaseURL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, "database:\n  url: postgres://file-value\n")

	t.Setenv("DATABASE_URL", "postgres://env-value")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("TRACKING_SIGNING_KEY", "from-env")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env-value", cfg.Database.URL)
	assert.True(t, cfg.Redis.Enabled, "REDIS_URL should enable redis")
	assert.Equal(t, "from-env", cfg.Tracking.SigningKey)
}
