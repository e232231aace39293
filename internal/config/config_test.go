package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	os.Clearenv()
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_ENV", "test")
	t.Setenv("REDIS_ENABLED", "true")

	cfg, err := LoadConfig()
	assert.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "test", cfg.Server.Env)
	assert.True(t, cfg.Redis.Enabled)

	// Engine defaults
	assert.Equal(t, 3, cfg.Engine.AttemptCap)
	assert.Equal(t, 0.1, cfg.Engine.Alpha)
	assert.Equal(t, int64(32), cfg.Engine.Ceiling)
	assert.Equal(t, int64(30000), cfg.Engine.DefaultTimeoutMS)
}

func TestLoadConfig_APIKeyResolution(t *testing.T) {
	t.Setenv("TEST_API_KEY", "sk-test-12345")

	configContent := `
backends:
  - id: "test-backend"
    provider: "test"
    type: "http"
    base_url: "http://localhost:1234"
    api_key: "ENV:TEST_API_KEY"
    capabilities: ["chat"]
    enabled: true
`
	f, err := os.CreateTemp("", "config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(f.Name())

	_, err = f.WriteString(configContent)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	t.Setenv("CONFIG_FILE", f.Name())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Len(t, cfg.Backends, 1)
	assert.Equal(t, "sk-test-12345", cfg.Backends[0].APIKey)
}

func TestLoadConfig_EngineOverrides(t *testing.T) {
	configContent := `
engine:
  attempt_cap: 5
  ceiling: 4
  alpha: 0.25
  capability_timeout_ms:
    vision: 60000
`
	f, err := os.CreateTemp("", "config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(f.Name())

	_, err = f.WriteString(configContent)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	t.Setenv("CONFIG_FILE", f.Name())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Engine.AttemptCap)
	assert.Equal(t, int64(4), cfg.Engine.Ceiling)
	assert.Equal(t, 0.25, cfg.Engine.Alpha)
	assert.Equal(t, int64(60000), cfg.Engine.CapabilityTimeoutMS["vision"])
}
