package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pagewell-hq/courier/pkg/config"
)

var statsFlags struct {
	since time.Duration
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize journaled fetch activity",
	Long: `Read the journal and print request and per-provider statistics for a
time window ending now.

Examples:
  # Last 24 hours (default)
  courier stats

  # Last hour
  courier stats --since 1h`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().DurationVar(&statsFlags.since, "since", 24*time.Hour, "window size ending now")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}

	store, err := buildJournalStore(cfg.Journal)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	since := time.Now().Add(-statsFlags.since)

	summary, err := store.Summarize(ctx, since)
	if err != nil {
		return fmt.Errorf("summarize journal: %w", err)
	}

	fmt.Printf("Window: last %s\n\n", statsFlags.since)
	fmt.Printf("Requests:   %d\n", summary.Requests)
	fmt.Printf("Successes:  %d\n", summary.Successes)
	fmt.Printf("Cache hits: %d\n", summary.CacheHits)
	fmt.Printf("Fallbacks:  %d\n", summary.Fallbacks)
	fmt.Printf("Cost units: %.1f\n", summary.CostUnits)

	stats, err := store.ProviderStats(ctx, since)
	if err != nil {
		return fmt.Errorf("aggregate provider stats: %w", err)
	}
	if len(stats) == 0 {
		return nil
	}

	fmt.Printf("\n%-20s %10s %10s %12s %9s\n", "PROVIDER", "ATTEMPTS", "SUCCESSES", "RATE-LIMITED", "SUCCESS%")
	for _, s := range stats {
		fmt.Printf("%-20s %10d %10d %12d %8.1f%%\n",
			s.Provider, s.Attempts, s.Successes, s.RateLimited, s.SuccessRate()*100)
	}
	return nil
}
