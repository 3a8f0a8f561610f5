package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0", cfg.Host)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "0.0.0.0:8080", cfg.ListenAddr())
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, "/metrics", cfg.MetricsPath)
	require.True(t, cfg.ConnectorsEnabled)
	require.False(t, cfg.TrustLedgerEnabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CONNECTORPLANE_PORT", "9090")
	t.Setenv("CONNECTORPLANE_CONNECTORS_ENABLED", "false")
	t.Setenv("CONNECTORPLANE_CATALOG_PATH", "/etc/plane/connectors.yaml")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Port)
	require.False(t, cfg.ConnectorsEnabled)
	require.Equal(t, "/etc/plane/connectors.yaml", cfg.CatalogPath)
}
