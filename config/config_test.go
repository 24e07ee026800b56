package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.General.ChainID = 31337
	cfg.Fork.RPCURL = "https://eth.example.com"
	cfg.Fork.BlockNumber = 19000000
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(cfg, loaded)
}

func TestDefaultConfig(t *testing.T) {
	assert := assert.New(t)
	cfg := DefaultConfig()
	assert.Equal(":8547", cfg.General.ListenAddr)
	assert.Equal(uint64(1337), cfg.General.ChainID)
	assert.Equal(uint64(12), cfg.General.BlockInterval)
	assert.Empty(cfg.Fork.RPCURL)
	assert.Equal("./data/snapshots", cfg.Snapshots.DBPath)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestLoadConfigBadToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("general = ["), 0o644))
	_, err := LoadConfig(path)
	require.Error(t, err)
}
