package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.True(t, cfg.CSV.WriteBOM)
	assert.False(t, cfg.CSV.CRLF)
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "converter.toml")
	content := "workers = 2\n\n[csv]\nwrite_bom = false\ncrlf = true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
	assert.False(t, cfg.CSV.WriteBOM)
	assert.True(t, cfg.CSV.CRLF)
}

func TestLoadPartialFileKeepsOtherDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "converter.toml")
	require.NoError(t, os.WriteFile(path, []byte("workers = 3\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
	assert.True(t, cfg.CSV.WriteBOM)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "converter.toml")
	require.NoError(t, os.WriteFile(path, []byte("workers = [not toml"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadNegativeWorkers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "converter.toml")
	require.NoError(t, os.WriteFile(path, []byte("workers = -1\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
