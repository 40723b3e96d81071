package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/studiowebux/skycli/internal/cli"
	versioncheck "github.com/studiowebux/skycli/internal/version"
)

var (
	version = "0.1.0"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var opts cli.Options

var rootCmd = &cobra.Command{
	Use:   "skycli",
	Short: "skycli - Bluesky in the terminal",
	Long: `skycli is an interactive terminal client for Bluesky.

Feeds refresh in the background while you read. Settings live in
~/.skycli/config.yaml and key bindings in ~/.skycli/keybinds.json.

Examples:
  skycli                          # Start the client
  skycli --log-level debug        # Log more to ~/.skycli/skycli.log
  skycli -c ./dev/config.yaml     # Use another config directory
  skycli keybinds check           # Validate keybinds.json
  skycli logout                   # Forget the stored session`,
	Version:       version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Run(cmd.Context(), opts)
	},
}

var keybindsCmd = &cobra.Command{
	Use:   "keybinds",
	Short: "Inspect and validate key bindings",
}

var keybindsOutput string

var keybindsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the effective key bindings as keybinds.json",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := cli.Setup(opts); err != nil {
			return err
		}
		return cli.ExportKeybinds(cmd.OutOrStdout(), keybindsOutput)
	},
}

var keybindsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate keybinds.json",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := cli.Setup(opts); err != nil {
			return err
		}
		return cli.CheckKeybinds(cmd.OutOrStdout())
	},
}

var keybindsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default key bindings to keybinds.json",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := cli.Setup(opts); err != nil {
			return err
		}
		return cli.InitKeybinds(cmd.OutOrStdout())
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := cli.Setup(opts); err != nil {
			return err
		}
		return cli.Logout(cmd.OutOrStdout())
	},
}

var checkUpdate bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "skycli %s\n", version)
		if !checkUpdate {
			return nil
		}
		return cli.CheckUpdate(cmd.Context(), cmd.OutOrStdout(), versioncheck.NewChecker(), version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to config.yaml (default ~/.skycli/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&opts.LogLevel, "log-level", "l", "", "Log level (debug/info/warn/error)")
	rootCmd.PersistentFlags().BoolVar(&opts.Dev, "dev", false, "Debug logging with source locations")

	versionCmd.Flags().BoolVar(&checkUpdate, "check", false, "Look up the latest release")
	keybindsExportCmd.Flags().StringVarP(&keybindsOutput, "output", "o", "", "Write to a file instead of stdout")

	keybindsCmd.AddCommand(keybindsExportCmd)
	keybindsCmd.AddCommand(keybindsCheckCmd)
	keybindsCmd.AddCommand(keybindsInitCmd)

	rootCmd.AddCommand(keybindsCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(versionCmd)
}
