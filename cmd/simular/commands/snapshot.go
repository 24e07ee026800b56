package commands

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/simular-fi/simular-go/config"
	"github.com/simular-fi/simular-go/snapshot"
)

// SnapshotCmd groups the snapshot subcommands
var SnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture, import and list chain-state snapshots",
}

var snapshotDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Capture remote accounts into a snapshot",
	Long: `Capture the given accounts (balance, nonce, code) from the configured fork
endpoint and store the result as a named snapshot. Storage slots are pulled
lazily during execution, so a dump taken up front contains only account
basics unless slots were already touched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return snapshotDumpCommand(cmd)
	},
}

var snapshotImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a snapshot file into the snapshot store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return snapshotImportCommand(cmd)
	},
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		return snapshotListCommand()
	},
}

func init() {
	snapshotDumpCmd.Flags().StringSlice("account", nil, "Account address to capture (repeatable)")
	snapshotDumpCmd.Flags().String("name", "", "Name to store the snapshot under")
	snapshotDumpCmd.Flags().String("out", "", "Optional file path for the JSON document")
	snapshotDumpCmd.MarkFlagRequired("name")

	snapshotImportCmd.Flags().String("file", "", "Path of the snapshot JSON document")
	snapshotImportCmd.Flags().String("name", "", "Name to store the snapshot under")
	snapshotImportCmd.MarkFlagRequired("file")
	snapshotImportCmd.MarkFlagRequired("name")

	SnapshotCmd.AddCommand(snapshotDumpCmd)
	SnapshotCmd.AddCommand(snapshotImportCmd)
	SnapshotCmd.AddCommand(snapshotListCmd)
}

func loadConfig() (config.Config, error) {
	path, err := configPath()
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %v", err)
	}
	return cfg, nil
}

func snapshotDumpCommand(cmd *cobra.Command) error {
	log := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Fork.RPCURL == "" {
		return fmt.Errorf("snapshot dump needs a fork.rpc_url in the config")
	}

	accounts, _ := cmd.Flags().GetStringSlice("account")
	name, _ := cmd.Flags().GetString("name")
	out, _ := cmd.Flags().GetString("out")

	backend, cleanup, err := buildBackend(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	for _, raw := range accounts {
		if !common.IsHexAddress(raw) {
			return fmt.Errorf("invalid account address: %s", raw)
		}
		addr := common.HexToAddress(raw)
		info, err := backend.Basic(addr)
		if err != nil {
			return fmt.Errorf("failed to capture %s: %v", raw, err)
		}
		if info == nil {
			log.Warnf("Account %s does not exist at block %d", raw, backend.BlockNumber())
		}
	}

	doc, err := backend.DumpSnapshot()
	if err != nil {
		return fmt.Errorf("failed to dump snapshot: %v", err)
	}

	store, err := snapshot.OpenStore(cfg.Snapshots.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Save(name, doc); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %v", name, err)
	}
	log.Infof("Saved snapshot %s with %d accounts at block %d", name, len(doc.Accounts), doc.BlockNum)

	if out != "" {
		if err := doc.WriteFile(out); err != nil {
			return err
		}
		log.Infof("Wrote snapshot document to %s", out)
	}
	return nil
}

func snapshotImportCommand(cmd *cobra.Command) error {
	log := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	file, _ := cmd.Flags().GetString("file")
	name, _ := cmd.Flags().GetString("name")

	doc, err := snapshot.ReadFile(file)
	if err != nil {
		return err
	}

	store, err := snapshot.OpenStore(cfg.Snapshots.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Save(name, doc); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %v", name, err)
	}
	log.Infof("Imported %s as snapshot %s (%d accounts, block %d)", file, name, len(doc.Accounts), doc.BlockNum)
	return nil
}

func snapshotListCommand() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := snapshot.OpenStore(cfg.Snapshots.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	names, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %v", err)
	}
	if len(names) == 0 {
		fmt.Println("No snapshots stored.")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
