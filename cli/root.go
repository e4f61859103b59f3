// Package cli implements the Cobra-based command-line front-end: load,
// execute, chain, list, unload, trace, plus serve to run the daemon
// itself. One file per command family; shared flags and config loading
// live on the root command.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wasmforge/pluginhost/config"
	"github.com/wasmforge/pluginhost/transport"
)

var (
	cfgFile    string
	socketFlag string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "pluginhost",
	Short: "Sandboxed WASM plugin host",
	Long: `pluginhost loads WebAssembly plugin binaries, runs them under
fuel/memory/timeout limits, and composes them into linear pipelines.

Run "pluginhost serve" to start the daemon, then use load/execute/chain/
list/unload to drive it over its Unix domain socket.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		if socketFlag != "" {
			cfg.Core.SocketPath = socketFlag
		}
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the CLI's root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default pluginhost.yaml in $HOME/.pluginhost or the working directory)")
	rootCmd.PersistentFlags().StringVar(&socketFlag, "socket", "", "override the daemon's Unix socket path")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(executeCmd)
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(unloadCmd)
	rootCmd.AddCommand(traceCmd)
}

// dialClient connects to the daemon's socket, printing a hint if the
// daemon does not appear to be running.
func dialClient() (*transport.Client, error) {
	if _, err := os.Stat(cfg.Core.SocketPath); err != nil {
		return nil, fmt.Errorf("daemon not running (socket %s not found; run \"pluginhost serve\")", cfg.Core.SocketPath)
	}
	client := transport.NewClient(cfg.Core.SocketPath)
	if err := client.Connect(); err != nil {
		return nil, err
	}
	return client, nil
}
