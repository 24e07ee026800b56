package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/simular-fi/simular-go/config"
	"github.com/simular-fi/simular-go/eth"
	"github.com/simular-fi/simular-go/rpcserve"
	"github.com/simular-fi/simular-go/snapshot"
	"github.com/simular-fi/simular-go/statedb"
)

// ServeCmd represents the serve command
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chain-state cache over read-only JSON-RPC",
	Long: `Serve the chain-state cache over read-only JSON-RPC using the configuration
from ~/.simular/config.toml. With a fork URL configured, missing state is pulled
lazily from the remote endpoint; otherwise the backend is self-contained.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCommand(cmd)
	},
}

func init() {
	ServeCmd.Flags().String("restore", "", "Name of a stored snapshot to restore before serving")
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		ForceColors:     true,
	})
	log.SetLevel(logrus.InfoLevel)
	return log
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %v", err)
	}
	return filepath.Join(home, ".simular", "config.toml"), nil
}

func buildBackend(cfg config.Config, log *logrus.Logger) (*statedb.Backend, func(), error) {
	if cfg.Fork.RPCURL == "" {
		return statedb.NewLocal(log), func() {}, nil
	}

	client, err := eth.NewClient(cfg.Fork.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %v", cfg.Fork.RPCURL, err)
	}
	fetcher := eth.NewSerialFetcher(client, log)
	backend, err := statedb.NewFork(fetcher, cfg.Fork.BlockNumber, log)
	if err != nil {
		fetcher.Close()
		client.Close()
		return nil, nil, err
	}
	cleanup := func() {
		fetcher.Close()
		client.Close()
	}
	return backend, cleanup, nil
}

func serveCommand(cmd *cobra.Command) error {
	log := newLogger()

	path, err := configPath()
	if err != nil {
		return err
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	backend, cleanup, err := buildBackend(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	if name, _ := cmd.Flags().GetString("restore"); name != "" {
		store, err := snapshot.OpenStore(cfg.Snapshots.DBPath)
		if err != nil {
			return err
		}
		doc, err := store.Load(name)
		store.Close()
		if err != nil {
			return err
		}
		if err := backend.LoadSnapshot(doc); err != nil {
			return fmt.Errorf("failed to restore snapshot %s: %v", name, err)
		}
		log.Infof("Restored snapshot %s at block %d", name, backend.BlockNumber())
	}

	server := rpcserve.NewServer(backend, cfg.General.ChainID, cfg.General.BlockInterval, log)
	return server.Run(cfg.General.ListenAddr)
}
