package docker_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/celestiaorg/nodenv/framework/backoff"
	"github.com/celestiaorg/nodenv/framework/docker"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := docker.DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, docker.DefaultPrefix, cfg.Prefix)
	require.Equal(t, 15*time.Second, cfg.SettleDelay)
	require.Equal(t, 100*time.Millisecond, cfg.HealthPollInterval)
	require.Equal(t, backoff.ReadinessPolicy(), cfg.Readiness)
	require.Equal(t, backoff.ConnectorPolicy(), cfg.Connector)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodenv.toml")
	err := os.WriteFile(path, []byte(`
prefix = "integration"
docker_host = "unix:///tmp/docker.sock"
settle_delay = "5s"

[connector]
initial = "500ms"
growth = "exponential"
multiplier = 3
max_delay = "4s"
max_attempts = 4
`), 0o644)
	require.NoError(t, err)

	cfg, err := docker.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "integration", cfg.Prefix)
	require.Equal(t, "unix:///tmp/docker.sock", cfg.DockerHost)
	require.Equal(t, 5*time.Second, cfg.SettleDelay)
	require.Equal(t, 100*time.Millisecond, cfg.HealthPollInterval, "unset keys keep their default")
	require.Equal(t, backoff.ReadinessPolicy(), cfg.Readiness)
	require.Equal(t, []time.Duration{500 * time.Millisecond, 1500 * time.Millisecond, 4 * time.Second}, cfg.Connector.Delays())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := docker.LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", `prefx = "typo"`},
		{"unknown growth", "[readiness]\ngrowth = \"linear\""},
		{"zero attempts", "[connector]\nmax_attempts = 0"},
		{"empty prefix", `prefix = ""`},
		{"zero poll interval", `health_poll_interval = "0s"`},
		{"malformed", `prefix = `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := docker.ParseConfig(tt.doc)
			require.Error(t, err)
		})
	}
}
