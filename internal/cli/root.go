// Package cli wires clearinghoused's cobra commands over config, zap
// logging, and the engine packages — the same split goXRPLd uses between
// a thin cmd/ main and an internal/cli command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:     "clearinghoused",
	Short:   "Multilateral clearing and settlement engine",
	Version: "0.1.0-dev",
}

// Execute runs the root command. Called by cmd/clearinghoused's main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a clearinghoused config file (toml/yaml/json)")
}
