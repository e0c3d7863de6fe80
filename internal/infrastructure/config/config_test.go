package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
reconcile:
  window_days: 10
  accept_threshold: 0.7
  gateways:
    - name: stripe
      percent: 0.029
      fixed_cents: 30
    - name: eu-gateway
      currency: EUR
      percent: 0.014
      fixed_cents: 25
storage:
  database_path: ${TEST_RECONCILE_DB}
observability:
  logging:
    level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("TEST_RECONCILE_DB", "/tmp/recon-test.db")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Reconcile.WindowDays)
	assert.Equal(t, 0.7, cfg.Reconcile.AcceptThreshold)
	require.Len(t, cfg.Reconcile.Gateways, 2)
	assert.Equal(t, "eu-gateway", cfg.Reconcile.Gateways[1].Name)
	assert.Equal(t, "/tmp/recon-test.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)

	// Untouched sections keep defaults.
	assert.Equal(t, 0.4, cfg.Reconcile.NameWeight)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_InvalidValuesRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
reconcile:
  window_days: -3
  name_weight: 0.9
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Len(t, cfgErr.Problems, 2) // negative window, weights don't sum to 1
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RECONCILE_DB_PATH", "/data/env.db")
	t.Setenv("RECONCILE_WINDOW_DAYS", "14")

	cfg := LoadFromEnv()
	assert.Equal(t, "/data/env.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 14, cfg.Reconcile.WindowDays)
}

func TestValidate_GatewayBounds(t *testing.T) {
	cfg := Default()
	cfg.Reconcile.Gateways[0].Percent = 1.5

	err := cfg.Validate()
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}
