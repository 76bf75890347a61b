package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProverOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serverd.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_address = "0.0.0.0:9000"
default_lambda = 80
`), 0o644))

	cfg, err := LoadProver(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.ListenAddress)
	assert.Equal(t, uint64(80), cfg.DefaultLambda)
	// Untouched keys keep their defaults.
	assert.Equal(t, uint64(50), cfg.DefaultCPercent)
	assert.Equal(t, 1024, cfg.JobQueueSize)
}

func TestLoadClientOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lightcli.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_address = "10.0.0.1:7654"
l = 50
`), 0o644))

	cfg, err := LoadClient(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:7654", cfg.ServerAddress)
	assert.Equal(t, uint64(50), cfg.L)
	assert.Equal(t, uint64(50), cfg.Lambda)
}

func TestLoadProverRejectsMissingFile(t *testing.T) {
	_, err := LoadProver(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	assert.Error(t, err)
}
