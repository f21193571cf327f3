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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  host: "0.0.0.0"

database:
  url: "postgres://localhost/crm"

sendgrid:
  api_key: "SG.key"
  max_recipients: 500
  unsubscribe_group_id: 42

bulk_email:
  unsubscribe_base_url: "https://unsub.test.com/u"
  env_origin: "staging"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr())
	assert.Equal(t, "postgres://localhost/crm", cfg.Database.URL)
	assert.Equal(t, 500, cfg.SendGrid.MaxRecipients)
	assert.Equal(t, 42, cfg.SendGrid.UnsubscribeGroupID)
	assert.Equal(t, "https://unsub.test.com/u", cfg.BulkEmail.UnsubscribeBaseURL)
	assert.Equal(t, "staging", cfg.BulkEmail.EnvOrigin)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 950, cfg.SendGrid.MaxRecipients)
	assert.Equal(t, "https://api.sendgrid.com/v3", cfg.SendGrid.BaseURL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NotEmpty(t, cfg.BulkEmail.UnsubscribeBaseURL)
	assert.False(t, cfg.Validation.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("SENDGRID_API_KEY", "SG.from-env")
	t.Setenv("VALIDATION_API_KEY", "verify-key")
	t.Setenv("ENV_ORIGIN", "production")

	cfg, err := LoadFromEnv(writeConfig(t, `{}`))
	require.NoError(t, err)

	assert.Equal(t, "SG.from-env", cfg.SendGrid.APIKey)
	assert.Equal(t, "verify-key", cfg.Validation.APIKey)
	assert.True(t, cfg.Validation.Enabled, "a validation key enables verification")
	assert.Equal(t, "production", cfg.BulkEmail.EnvOrigin)
}
