package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"candor-hq/skyhook/pkg/config"
	"candor-hq/skyhook/pkg/kv"
	"candor-hq/skyhook/pkg/proxystore"
	"candor-hq/skyhook/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "skyhook",
	Short: "Skyhook - proxied TLS transport",
	Long: `Skyhook opens TLS connections to remote API hosts through an HTTP CONNECT
or SOCKS5 proxy when direct egress is blocked.

It provides:
  - Persistent proxy target configuration with a precedence chain
    (persisted value over compiled-in default)
  - Byte-exact HTTP CONNECT and SOCKS5 tunnel establishment
  - TLS with SNI and a configurable trust bundle over the tunnel
  - A local TCP forwarder for clients that cannot speak the tunnel`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// setup loads the configuration singleton, configures logging, opens the
// key-value store, and initializes the proxy store from the precedence
// chain. The caller closes the returned kv store.
func setup(ctx context.Context) (*config.Config, *kv.SQLiteStore, *proxystore.Store, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, nil, nil, err
	}
	cfg := config.GetConfig()

	logCfg := cfg.Telemetry.Logging
	if verbose {
		logCfg.Level = "debug"
	}
	if _, err := logging.Setup(&logCfg); err != nil {
		return nil, nil, nil, err
	}

	kvStore, err := kv.NewSQLiteStore(&kv.SQLiteConfig{
		Path:        cfg.Store.Path,
		WALMode:     true,
		BusyTimeout: cfg.Store.BusyTimeout,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	store := proxystore.New(kvStore)
	store.Init(ctx, proxystore.Settings{
		Host: cfg.Proxy.Host,
		Port: cfg.Proxy.Port,
		Kind: proxystore.Kind(cfg.Proxy.Kind),
	})

	return cfg, kvStore, store, nil
}
