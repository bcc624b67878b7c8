package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "store", cfg.Import.Backend)
	assert.Equal(t, "csv_import", cfg.Import.DefaultSource)
	assert.Equal(t, "New", cfg.Import.DefaultStatus)
	assert.Equal(t, 30, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://login.salesforce.com", cfg.Salesforce.LoginURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LEADIMPORT_IMPORT_DEFAULT_STATUS", "Contacted")
	t.Setenv("LEADIMPORT_STORE_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Contacted", cfg.Import.DefaultStatus)
	assert.Equal(t, "postgres", cfg.Store.Driver)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "nonsense", Format: "json"})
	assert.Error(t, err)
}
