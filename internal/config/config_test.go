package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsToMockWithoutKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("CHRONICLE_GEMINI_API_KEY", "")
	t.Chdir(t.TempDir())

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.True(t, cfg.Mock)
	assert.Equal(t, "gemini-2.5-pro", cfg.Model)
	assert.Equal(t, 2*time.Second, cfg.AdvanceDelay)
	assert.Equal(t, time.Second, cfg.FallbackDelay)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "transcripts", cfg.TranscriptDir)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("CHRONICLE_REQUEST_TIMEOUT", "30s")
	t.Setenv("CHRONICLE_LOG_LEVEL", "debug")
	t.Setenv("CHRONICLE_REQUESTS_PER_MINUTE", "3")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.False(t, cfg.Mock)
	assert.Equal(t, "secret", cfg.GeminiAPIKey)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 3, cfg.RequestsPerMinute)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("GEMINI_API_KEY", "")
	body := "gemini_api_key: from-file\nmodel: gemini-2.5-flash\nfallback_delay: 250ms\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chronicle.yaml"), []byte(body), 0644))

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.GeminiAPIKey)
	assert.Equal(t, "gemini-2.5-flash", cfg.Model)
	assert.Equal(t, 250*time.Millisecond, cfg.FallbackDelay)
	assert.False(t, cfg.Mock)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("CHRONICLE_LOG_LEVEL", "chatty")
	_, err := Load(New())
	assert.Error(t, err)

	t.Setenv("CHRONICLE_LOG_LEVEL", "info")
	t.Setenv("CHRONICLE_ADVANCE_DELAY", "-1s")
	_, err = Load(New())
	assert.Error(t, err)
}
