// Command escanor-server runs a single Escanor cluster node: it loads
// the YAML config, opens the bbolt-backed Raft node, and serves RESP
// connections against it until shut down (spec.md §6 CLI surface).
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mambisi/escanor/internal/cluster"
	"github.com/mambisi/escanor/internal/config"
	"github.com/mambisi/escanor/internal/engine"
	"github.com/mambisi/escanor/internal/logging"
	"github.com/mambisi/escanor/internal/server"
)

func main() {
	var (
		configPath string
		reset      bool
		dev        bool
		port       int
		logLevel   string
	)

	root := &cobra.Command{
		Use:   "escanor-server",
		Short: "run an Escanor cluster node",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, reset, dev, port, logLevel)
		},
	}
	root.Flags().StringVar(&configPath, "config", "escanor.yaml", "path to the YAML config file")
	root.Flags().BoolVar(&reset, "reset", false, "write the documented default config if --config is missing")
	root.Flags().BoolVar(&dev, "dev", false, "use human-readable console logging instead of JSON")
	root.Flags().IntVar(&port, "port", 0, "override network.port from the config file (0 keeps the configured value)")
	root.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configPath string, reset, dev bool, portOverride int, logLevel string) error {
	logger, err := logging.New(logLevel, dev)
	if err != nil {
		return fmt.Errorf("escanor-server: %w", err)
	}
	defer logger.Sync()

	conf, err := config.Load(configPath, reset)
	if err != nil {
		return fmt.Errorf("escanor-server: %w", err)
	}
	if portOverride > 0 {
		conf.Network.Port = portOverride
	}

	eng := engine.NewStore()

	peers := make([]cluster.Peer, 0, len(conf.Cluster.Peers))
	for _, p := range conf.Cluster.Peers {
		peers = append(peers, cluster.Peer{ID: p.ID, Address: p.Address})
	}
	node, err := cluster.New(cluster.Config{
		NodeID:            conf.Cluster.NodeID,
		BindAddr:          conf.Cluster.Bind,
		DataDir:           conf.Cluster.DataDir,
		Peers:             peers,
		Bootstrap:         conf.Cluster.Bootstrap,
		SnapshotThreshold: uint64(conf.Database.SnapshotIntervalOps),
		Logger:            logger,
	}, eng)
	if err != nil {
		return fmt.Errorf("escanor-server: start cluster node: %w", err)
	}

	srv := server.New(eng, node, conf.Network, conf.Server.RequireAuth, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		node.Shutdown()
		return fmt.Errorf("escanor-server: %w", err)
	case <-sig:
		logger.Info("shutting down", zap.String("reason", "signal"))
		return node.Shutdown()
	}
}
