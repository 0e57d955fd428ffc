package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "courier",
	Short: "Courier - multi-provider data-fetch orchestration service",
	Long: `Courier orchestrates fetch requests across external data providers.

It provides:
  - Rule-based routing with capability filtering
  - Automatic fallback and bounded retry across providers
  - Content-class keyed caching with per-class TTLs
  - Local rate-limit metering per provider
  - An append-only journal of every request for cost analysis`,
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
