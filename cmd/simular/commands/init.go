package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/simular-fi/simular-go/config"
)

// InitCmd represents the init command
var InitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the simular home directory",
	Long: `Initialize the simular home directory with the required configuration.
This command creates the necessary directories and a default config.toml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initCommand(cmd)
	},
}

func init() {
	InitCmd.Flags().String("fork.rpc-url", "", "Remote chain RPC URL (empty for a self-contained backend)")
	InitCmd.Flags().Uint64("fork.block-number", 0, "Block number to fork at (0 = latest)")
	InitCmd.Flags().String("listen", ":8547", "RPC shim listen address")
	InitCmd.Flags().Uint64("chain-id", 1337, "Chain ID reported by the RPC shim")
	InitCmd.Flags().Uint64("block-interval", 12, "Seconds added to the timestamp per mined block")
}

func initCommand(cmd *cobra.Command) error {
	forkURL, _ := cmd.Flags().GetString("fork.rpc-url")
	forkBlock, _ := cmd.Flags().GetUint64("fork.block-number")
	listen, _ := cmd.Flags().GetString("listen")
	chainID, _ := cmd.Flags().GetUint64("chain-id")
	interval, _ := cmd.Flags().GetUint64("block-interval")

	log := newLogger()

	// Get user's home directory
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %v", err)
	}

	simularDir := filepath.Join(home, ".simular")
	if err := os.MkdirAll(simularDir, 0755); err != nil {
		return fmt.Errorf("failed to create .simular directory: %v", err)
	}

	snapshotDir := filepath.Join(simularDir, "data", "snapshots")
	if err := os.MkdirAll(snapshotDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %v", snapshotDir, err)
	}

	cfg := config.DefaultConfig()
	cfg.Fork.RPCURL = forkURL
	cfg.Fork.BlockNumber = forkBlock
	cfg.General.ListenAddr = listen
	cfg.General.ChainID = chainID
	cfg.General.BlockInterval = interval
	cfg.Snapshots.DBPath = snapshotDir

	configPath := filepath.Join(simularDir, "config.toml")
	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("failed to create config file: %v", err)
	}
	log.Infof("Created config file at: %s", configPath)

	fmt.Println("\n=== Configuration Summary ===")
	if cfg.Fork.RPCURL == "" {
		fmt.Println("Mode: local (no remote endpoint)")
	} else {
		fmt.Printf("Mode: fork of %s\n", cfg.Fork.RPCURL)
		if cfg.Fork.BlockNumber == 0 {
			fmt.Println("Fork block: latest")
		} else {
			fmt.Printf("Fork block: %d\n", cfg.Fork.BlockNumber)
		}
	}
	fmt.Printf("Listen Address: %s\n", cfg.General.ListenAddr)
	fmt.Printf("Chain ID: %d\n", cfg.General.ChainID)
	fmt.Printf("Snapshot DB: %s\n", cfg.Snapshots.DBPath)
	fmt.Printf("Config File: %s\n", configPath)

	return nil
}
