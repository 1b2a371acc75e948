package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Load reads the real environment, so these tests do not run in parallel.

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOT_TOKEN", "123456:test-token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, DefaultStoreURI, cfg.Store.URI)
	assert.Equal(t, "openai", cfg.Analyzer.Provider)
	assert.Equal(t, "gpt-3.5-turbo", cfg.Analyzer.Model)
	assert.Empty(t, cfg.Analyzer.APIKey)
	assert.Equal(t, 30*time.Second, cfg.Analyzer.Timeout)
	assert.Equal(t, "123456:test-token", cfg.Telegram.Token)
	assert.Equal(t, 5, cfg.Telegram.MaxLaunchRetries)
	assert.Equal(t, time.Minute, cfg.Tasks.HousekeepingInterval)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOT_TOKEN", "123456:test-token")
	t.Setenv("ANALYZER_API_KEY", "sk-test")
	t.Setenv("ANALYZER_MODEL", "gpt-4o-mini")
	t.Setenv("ANALYZER_PROVIDER", "gemini")
	t.Setenv("STORE_URI", "/tmp/other.db")
	t.Setenv("MAX_LAUNCH_RETRIES", "3")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.Analyzer.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.Analyzer.Model)
	assert.Equal(t, "gemini", cfg.Analyzer.Provider)
	assert.Equal(t, "/tmp/other.db", cfg.Store.URI)
	assert.Equal(t, 3, cfg.Telegram.MaxLaunchRetries)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadMissingToken(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOT_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadInvalidProvider(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOT_TOKEN", "123456:test-token")
	t.Setenv("ANALYZER_PROVIDER", "anthropic")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
}
