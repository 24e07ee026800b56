package main

import (
	"os"

	"github.com/simular-fi/simular-go/cmd/simular/commands"
	"github.com/spf13/cobra"
)

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:   "simular",
		Short: "A chain-state cache for simulated EVM execution",
		Long: `A chain-state cache for simulated EVM execution. It serves account, code and
storage data to an embedded execution engine, optionally forked from a remote
chain endpoint, and captures the accumulated state as portable snapshots.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.InitCmd)
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.SnapshotCmd)

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
