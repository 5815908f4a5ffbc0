package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"candor-hq/skyhook/pkg/cli"
	"candor-hq/skyhook/pkg/secure"
	"candor-hq/skyhook/pkg/transport"
	"candor-hq/skyhook/pkg/tunnel"
)

var probeFlags struct {
	timeout time.Duration
}

var probeCmd = &cobra.Command{
	Use:   "probe <host> <port>",
	Short: "Open one test connection through the configured proxy",
	Long: `Open a secure connection to host:port through the configured proxy,
report per-stage timing, and close it.

Examples:
  skyhook probe api.example.com 443
  skyhook probe api.example.com 443 --timeout 5s`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, err := strconv.ParseUint(args[1], 10, 16)
		if err != nil || port == 0 {
			return cli.NewConfigError("port", fmt.Sprintf("invalid port %q", args[1]))
		}

		ctx := cli.SetupSignalHandler()
		cfg, kvStore, store, err := setup(ctx)
		if err != nil {
			return err
		}
		defer kvStore.Close()

		if !store.Enabled() {
			return cli.NewConfigError("proxy", "no proxy configured; run \"skyhook proxy set\" first")
		}

		roots, err := secure.TrustBundle(cfg.Transport.CAFile, cfg.Transport.ReplaceSystemRoots)
		if err != nil {
			return cli.NewCommandError("probe", err)
		}

		dialer := transport.NewDialer(store, transport.Options{
			Tunnel: tunnel.Config{StepTimeout: cfg.Transport.StepTimeout},
			Secure: secure.Config{
				RootCAs:          roots,
				HandshakeTimeout: cfg.Transport.HandshakeTimeout,
				WriteRetryLimit:  cfg.Transport.WriteRetryLimit,
			},
		})

		start := time.Now()
		conn, err := dialer.Open(ctx, args[0], uint16(port), probeFlags.timeout)
		if err != nil {
			fmt.Printf("✗ %s (%s)\n", transport.Category(err), err)
			return cli.NewCommandError("probe", err)
		}
		defer conn.Close()

		fmt.Printf("✓ Secure connection to %s:%d established in %s\n",
			args[0], port, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	probeCmd.Flags().DurationVar(&probeFlags.timeout, "timeout", 10*time.Second, "per-step timeout")
	rootCmd.AddCommand(probeCmd)
}
