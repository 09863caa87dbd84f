package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://sheets.googleapis.com/v4", cfg.Sheets.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Sheets.Timeout())
	assert.InDelta(t, 1.0, cfg.Sheets.RequestsPerSec, 0.001)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Audit.Driver)
	assert.Equal(t, "Auto", cfg.Override.ResetSentinel)
	assert.Equal(t, "risk", cfg.Override.ValueColumn)
	assert.Equal(t, "|", cfg.Override.KeySeparator)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
sheets:
  spreadsheet_id: sheet-123
  timeout_secs: 5
server:
  port: 9090
audit:
  driver: "off"
override:
  risk_tabs: ["ceo-risk", "brand-risk"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sheet-123", cfg.Sheets.SpreadsheetID)
	assert.Equal(t, 5*time.Second, cfg.Sheets.Timeout())
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "off", cfg.Audit.Driver)
	assert.Equal(t, []string{"ceo-risk", "brand-risk"}, cfg.Override.RiskTabs)
	// Untouched sections keep their defaults.
	assert.Equal(t, "Auto", cfg.Override.ResetSentinel)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SENTIMENT_SHEETS_SPREADSHEET_ID", "env-sheet")
	t.Setenv("SENTIMENT_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env-sheet", cfg.Sheets.SpreadsheetID)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "not-a-level", Format: "json"})
	assert.Error(t, err)
}
