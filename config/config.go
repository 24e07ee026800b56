package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

// Config holds the application configuration
type Config struct {
	General   GeneralConfig  `toml:"general"`
	Fork      ForkConfig     `toml:"fork"`
	Snapshots SnapshotConfig `toml:"snapshots"`
}

// GeneralConfig holds settings for the simulated chain and its RPC shim
type GeneralConfig struct {
	ListenAddr    string `toml:"listen_addr"`
	ChainID       uint64 `toml:"chain_id"`
	BlockInterval uint64 `toml:"block_interval"` // seconds added per mined block
}

// ForkConfig holds the optional remote endpoint. An empty URL means a
// self-contained local backend.
type ForkConfig struct {
	RPCURL      string `toml:"rpc_url"`
	BlockNumber uint64 `toml:"block_number"` // 0 forks at the latest block
}

// SnapshotConfig holds the snapshot database path
type SnapshotConfig struct {
	DBPath string `toml:"db_path"`
}

// DefaultConfig returns the configuration written by the init command
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			ListenAddr:    ":8547",
			ChainID:       1337,
			BlockInterval: 12,
		},
		Snapshots: SnapshotConfig{
			DBPath: "./data/snapshots",
		},
	}
}

// LoadConfig reads from config.toml and returns Config struct
func LoadConfig(path string) (Config, error) {
	var cfg Config
	file, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	}

	err = toml.Unmarshal(file, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %v", err)
	}

	return cfg, nil
}

// Save writes the configuration as TOML to path
func (c Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %v", err)
	}
	return nil
}
