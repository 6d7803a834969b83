package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dspybridge/dspybridge/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DSPYBRIDGE_CONFIG", "")
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("DEFAULT_MODEL", "")
	t.Setenv("DSPYBRIDGE_PORT", "")
	t.Setenv("PORT", "")
	t.Setenv("ENABLE_AUTH", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.DefaultPort, cfg.Port)
	assert.Equal(t, "groq/llama-3.1-8b-instant", cfg.DefaultModel)
	assert.Equal(t, 500, cfg.DefaultMaxTokens)
	assert.InDelta(t, 0.7, cfg.DefaultTemperature, 1e-9)
	assert.Equal(t, "groq", cfg.Provider())
	assert.False(t, cfg.IsConfigured())
	assert.False(t, cfg.EnableAuth)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DSPYBRIDGE_CONFIG", "")
	t.Setenv("DSPYBRIDGE_PORT", "9001")
	t.Setenv("DEFAULT_MODEL", "anthropic/claude-3-haiku-20240307")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("DEFAULT_TEMPERATURE", "0.2")
	t.Setenv("DSPYBRIDGE_API_KEYS", "a, b,,c")
	t.Setenv("DEBUG", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Port)
	assert.Equal(t, "anthropic", cfg.Provider())
	assert.Equal(t, "sk-ant", cfg.LLMAPIKey())
	assert.True(t, cfg.IsConfigured())
	assert.InDelta(t, 0.2, cfg.DefaultTemperature, 1e-9)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.APIKeys)
	assert.True(t, cfg.Debug)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dspybridge.yaml")
	data := []byte("port: 8100\ndefault_model: openai/gpt-4o-mini\nopenai_api_key: sk-test\ndocs_dir: /srv/docs\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	t.Setenv("DSPYBRIDGE_CONFIG", path)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 8100, cfg.Port)
	assert.Equal(t, "openai", cfg.Provider())
	assert.Equal(t, "sk-test", cfg.LLMAPIKey())
	assert.Equal(t, "/srv/docs", cfg.DocsDir)
	// untouched fields keep defaults
	assert.Equal(t, config.DefaultTopK, cfg.DefaultTopK)
}

func TestLoadJSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dspybridge.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"rate_limit_per_minute": 5, "enable_auth": true}`), 0o600))

	t.Setenv("DSPYBRIDGE_CONFIG", path)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.RateLimitPerMinute)
	assert.True(t, cfg.EnableAuth)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("DSPYBRIDGE_CONFIG", filepath.Join(t.TempDir(), "nope.json"))
	_, err := config.Load()
	assert.Error(t, err)
}
