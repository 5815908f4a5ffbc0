package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"candor-hq/skyhook/pkg/cli"
	"candor-hq/skyhook/pkg/proxystore"
)

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Manage the persisted proxy target",
}

var proxySetFlags struct {
	kind string
}

var proxySetCmd = &cobra.Command{
	Use:   "set <host> <port>",
	Short: "Set and persist the proxy target",
	Long: `Set the proxy target used for all outbound connections.

The target is persisted and takes precedence over the compiled-in default
on the next start.

Examples:
  # HTTP CONNECT proxy
  skyhook proxy set proxy.example.net 3128

  # SOCKS5 proxy
  skyhook proxy set proxy.example.net 1080 --kind socks5`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, err := strconv.ParseUint(args[1], 10, 16)
		if err != nil || port == 0 {
			return cli.NewConfigError("port", fmt.Sprintf("invalid port %q", args[1]))
		}

		ctx := context.Background()
		_, kvStore, store, err := setup(ctx)
		if err != nil {
			return err
		}
		defer kvStore.Close()

		kind := proxystore.ParseKind(proxySetFlags.kind)
		if err := store.Set(ctx, args[0], uint16(port), kind); err != nil {
			return cli.NewCommandError("proxy set", err)
		}

		fmt.Printf("Proxy set to %s:%d (%s)\n", args[0], port, kind)
		return nil
	},
}

var proxyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Erase the persisted proxy target",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		_, kvStore, store, err := setup(ctx)
		if err != nil {
			return err
		}
		defer kvStore.Close()

		if err := store.Clear(ctx); err != nil {
			return cli.NewCommandError("proxy clear", err)
		}

		fmt.Println("Proxy cleared")
		return nil
	},
}

var proxyShowFlags struct {
	format string
}

var proxyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active proxy target",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseFormat(proxyShowFlags.format)
		if err != nil {
			return err
		}

		ctx := context.Background()
		_, kvStore, store, err := setup(ctx)
		if err != nil {
			return err
		}
		defer kvStore.Close()

		snap := store.Snapshot()
		if format == cli.FormatJSON {
			return cli.WriteJSON(os.Stdout, map[string]any{
				"host":    snap.Host,
				"port":    snap.Port,
				"kind":    snap.Kind,
				"enabled": snap.Enabled(),
			})
		}

		if !snap.Enabled() {
			fmt.Println("No proxy configured (direct connection)")
			return nil
		}
		fmt.Printf("Proxy: %s:%d (%s)\n", snap.Host, snap.Port, snap.Kind)
		return nil
	},
}

func init() {
	proxySetCmd.Flags().StringVar(&proxySetFlags.kind, "kind", "http", "tunnel protocol: http or socks5")
	proxyShowCmd.Flags().StringVar(&proxyShowFlags.format, "format", "text", "output format: text or json")

	proxyCmd.AddCommand(proxySetCmd)
	proxyCmd.AddCommand(proxyClearCmd)
	proxyCmd.AddCommand(proxyShowCmd)
	rootCmd.AddCommand(proxyCmd)
}
