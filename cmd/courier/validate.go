package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pagewell-hq/courier/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load the configuration file, apply defaults and environment overrides,
and report every validation error found.

Examples:
  courier validate --config /etc/courier/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
		if err != nil {
			return err
		}

		fmt.Printf("✓ Configuration valid: %s\n", cfgFile)
		fmt.Printf("  providers: %d\n", len(cfg.Providers))
		fmt.Printf("  routing rules: %d\n", len(cfg.Routing.Rules))
		fmt.Printf("  cache backend: %s\n", cfg.Cache.Backend)
		fmt.Printf("  journal backend: %s\n", cfg.Journal.Backend)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
