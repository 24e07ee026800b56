package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simular-fi/simular-go/config"
)

func TestInitCommandWritesConfig(t *testing.T) {
	assert := assert.New(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	InitCmd.SetArgs([]string{"--chain-id", "777", "--listen", ":9999"})
	require.NoError(t, InitCmd.Execute())

	cfg, err := config.LoadConfig(filepath.Join(home, ".simular", "config.toml"))
	require.NoError(t, err)
	assert.Equal(uint64(777), cfg.General.ChainID)
	assert.Equal(":9999", cfg.General.ListenAddr)
	assert.Equal(filepath.Join(home, ".simular", "data", "snapshots"), cfg.Snapshots.DBPath)

	// The snapshot directory is created up front.
	_, err = os.Stat(cfg.Snapshots.DBPath)
	assert.NoError(err)
}
