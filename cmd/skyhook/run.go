package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"candor-hq/skyhook/pkg/cli"
	"candor-hq/skyhook/pkg/config"
	"candor-hq/skyhook/pkg/forward"
	"candor-hq/skyhook/pkg/kv"
	"candor-hq/skyhook/pkg/proxystore"
	"candor-hq/skyhook/pkg/secure"
	"candor-hq/skyhook/pkg/telemetry/health"
	"candor-hq/skyhook/pkg/telemetry/metrics"
	"candor-hq/skyhook/pkg/transport"
	"candor-hq/skyhook/pkg/tunnel"
)

var runFlags struct {
	listenAddress string
	targetHost    string
	targetPort    uint16
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the local forwarder",
	Long: `Run the local TCP forwarder over the proxied transport.

Every connection accepted on the listen address is relayed through a
freshly established tunnel and TLS session to the target host:port. Metrics
and health endpoints are served on the admin address.

Examples:
  # Start with default config
  skyhook run

  # Override the forward target
  skyhook run --target-host api.example.com --target-port 443

  # Validate config without starting
  skyhook run --dry-run`,
	RunE: runForwarder,
}

func init() {
	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.targetHost, "target-host", "", "override forward target host")
	runCmd.Flags().Uint16Var(&runFlags.targetPort, "target-port", 0, "override forward target port")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting")
	rootCmd.AddCommand(runCmd)
}

func runForwarder(cmd *cobra.Command, args []string) error {
	ctx := cli.SetupSignalHandler()

	cfg, kvStore, store, err := setup(ctx)
	if err != nil {
		return err
	}
	defer kvStore.Close()

	if runFlags.listenAddress != "" {
		cfg.Forward.ListenAddress = runFlags.listenAddress
	}
	if runFlags.targetHost != "" {
		cfg.Forward.TargetHost = runFlags.targetHost
	}
	if runFlags.targetPort != 0 {
		cfg.Forward.TargetPort = runFlags.targetPort
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	roots, err := secure.TrustBundle(cfg.Transport.CAFile, cfg.Transport.ReplaceSystemRoots)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	collector := metrics.NewCollector(cfg.Telemetry.MetricsNamespace, nil)

	dialer := transport.NewDialer(store, transport.Options{
		Tunnel: tunnel.Config{StepTimeout: cfg.Transport.StepTimeout},
		Secure: secure.Config{
			RootCAs:          roots,
			HandshakeTimeout: cfg.Transport.HandshakeTimeout,
			WriteRetryLimit:  cfg.Transport.WriteRetryLimit,
		},
		Metrics: collector.Transport(),
	})

	// Changelog retention sweeps run for the lifetime of the process.
	sweeper := kv.NewSweeper(kvStore, kv.SweeperConfig{
		Schedule:      cfg.Store.RetentionSchedule,
		RetentionDays: cfg.Store.RetentionDays,
	})
	if err := sweeper.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	defer sweeper.Stop()

	adminServer := startAdminServer(cfg, kvStore, store, collector)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Forward.ShutdownTimeout)
		defer cancel()
		adminServer.Shutdown(shutdownCtx)
	}()

	// Re-initialize proxy defaults when the config file changes on disk.
	// Persisted values still win; this only refreshes the fallback.
	if watcher, err := config.NewWatcher(config.WatchConfig{Path: cfgFile}); err == nil {
		go watcher.Watch(ctx, func() error {
			fresh, err := config.LoadConfigWithEnvOverrides(cfgFile)
			if err != nil {
				return err
			}
			snap := store.Snapshot()
			if !snap.Enabled() && fresh.Proxy.Host != "" && fresh.Proxy.Port != 0 {
				return store.Set(ctx, fresh.Proxy.Host, fresh.Proxy.Port,
					proxystore.ParseKind(fresh.Proxy.Kind))
			}
			return nil
		})
	}

	forwarder := forward.New(cfg.Forward, dialer)
	if err := forwarder.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return cli.NewCommandError("run", err)
	}
	return nil
}

// startAdminServer serves /metrics, /health, and /ready on the admin
// address.
func startAdminServer(cfg *config.Config, kvStore *kv.SQLiteStore, store *proxystore.Store, collector *metrics.Collector) *http.Server {
	checker := health.NewChecker(5 * time.Second)
	checker.Register("kv", func(ctx context.Context) error {
		_, err := kvStore.ChangelogCount(ctx)
		return err
	})
	checker.Register("proxy", func(ctx context.Context) error {
		if !store.Enabled() {
			return fmt.Errorf("no proxy configured")
		}
		return nil
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	mux.HandleFunc("/health", checker.LivenessHandler())
	mux.HandleFunc("/ready", checker.ReadinessHandler())

	server := &http.Server{
		Addr:    cfg.Forward.AdminAddress,
		Handler: mux,
	}
	go server.ListenAndServe()
	return server
}
