package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, ":memory:", cfg.Data.DBPath)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Data.Transactions)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FLATFINDER_SERVER_ADDR", ":9999")
	t.Setenv("FLATFINDER_LOG_LEVEL", "debug")
	t.Setenv("FLATFINDER_DATA_TRANSACTIONS", "/data/resale.csv")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/data/resale.csv", cfg.Data.Transactions)
	assert.Equal(t, ":memory:", cfg.Data.DBPath, "untouched keys keep defaults")
}
