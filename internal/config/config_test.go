package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"filescript/internal/config"
	"filescript/internal/extract"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, extract.DefaultTextChunkLines, cfg.Runtime.TextChunkLines)
	require.Equal(t, "info", cfg.Log.Level)
	require.False(t, cfg.Log.Console)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := &config.AppConfig{
		Runtime: config.RuntimeConfig{TextChunkLines: 120},
		Log:     config.LogConfig{Level: "debug", Console: true},
	}
	require.NoError(t, config.Save(path, want))

	got, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestLoadFillsPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  console: true\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, extract.DefaultTextChunkLines, cfg.Runtime.TextChunkLines)
	require.Equal(t, "info", cfg.Log.Level)
	require.True(t, cfg.Log.Console)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [broken\n"), 0o644))

	_, err := config.Load(path)
	require.Error(t, err)
}
