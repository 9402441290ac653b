package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"nitrocore/config"
)

func TestDefaultIsNonZero(t *testing.T) {
	cfg := config.Default()
	require.Positive(t, cfg.Arenas.DatabaseBytes)
	require.Positive(t, cfg.Pool.QueueCapacity)
	require.Zero(t, cfg.Pool.ThreadCount, "zero means size the pool to the platform's parallelism")
	require.Positive(t, cfg.Mixer.ChannelCount)
}

func TestLoadOverridesOnlySetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.toml")
	contents := `
[pool]
thread_count = 2

[mixer]
channel_count = 3
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, 2, cfg.Pool.ThreadCount)
	require.Equal(t, 3, cfg.Mixer.ChannelCount)

	// Fields the manifest didn't mention keep their Default() value.
	def := config.Default()
	require.Equal(t, def.Arenas.DatabaseBytes, cfg.Arenas.DatabaseBytes)
	require.Equal(t, def.Pool.QueueCapacity, cfg.Pool.QueueCapacity)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
