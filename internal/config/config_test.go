package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	// 空值等同于未设置
	t.Setenv("PORT", "")
	t.Setenv("IMPOSTER_PORT", "")
	t.Setenv("IMPOSTER_LOG_LEVEL", "")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "*", cfg.AllowedOrigin)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"Apple", "Banana", "Car", "Dog", "Elephant"}, cfg.DefaultWords)
	assert.False(t, cfg.Rules.StrictTurns)
	assert.False(t, cfg.Rules.StrictNames)
	assert.Zero(t, cfg.Rules.MinPlayers)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	body := `{
		"port": 8080,
		"log_level": "debug",
		"request_timeout": "2s",
		"rules": {"strict_turns": true, "strict_names": true, "min_players": 3}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app_config.json"), []byte(body), 0o644))

	t.Setenv("PORT", "")
	t.Setenv("IMPOSTER_PORT", "")
	t.Setenv("IMPOSTER_LOG_LEVEL", "warn")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.Rules.StrictTurns)
	assert.True(t, cfg.Rules.StrictNames)
	assert.Equal(t, 3, cfg.Rules.MinPlayers)
}

func TestLoad_RejectsInvalidPort(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app_config.json"), []byte(`{"port": 70000}`), 0o644))
	t.Setenv("PORT", "")
	t.Setenv("IMPOSTER_PORT", "")

	_, err := Load(dir)
	assert.Error(t, err)
}
