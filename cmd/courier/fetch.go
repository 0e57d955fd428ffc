package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pagewell-hq/courier/pkg/config"
	"pagewell-hq/courier/pkg/engine"
	"pagewell-hq/courier/pkg/fetch"
	"pagewell-hq/courier/pkg/journal"
	"pagewell-hq/courier/pkg/routing"
	"pagewell-hq/courier/pkg/telemetry/logging"
)

var fetchFlags struct {
	class       string
	caps        []string
	timeout     time.Duration
	bypassCache bool
	geoCountry  string
	output      string
}

var fetchCmd = &cobra.Command{
	Use:   "fetch TARGET",
	Short: "Perform a one-shot fetch from the command line",
	Long: `Fetch a single target through the configured provider pipeline and
print the result. The payload body goes to stdout (or --output); the
attempt summary goes to stderr.

Examples:
  # Fetch an article
  courier fetch https://example.com/story --class article

  # Require JavaScript rendering, save the body to a file
  courier fetch https://app.example.com --capability javascript-render --output page.html

  # Skip the cache
  courier fetch https://example.com --bypass-cache`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchFlags.class, "class", "generic-page", "content class of the target")
	fetchCmd.Flags().StringSliceVar(&fetchFlags.caps, "capability", nil, "required provider capability (repeatable)")
	fetchCmd.Flags().DurationVar(&fetchFlags.timeout, "timeout", 0, "overall request deadline (0 uses the engine default)")
	fetchCmd.Flags().BoolVar(&fetchFlags.bypassCache, "bypass-cache", false, "skip the cache read")
	fetchCmd.Flags().StringVar(&fetchFlags.geoCountry, "country", "", "ISO country code hint for geo-targeting providers")
	fetchCmd.Flags().StringVarP(&fetchFlags.output, "output", "o", "", "write the payload body to this file instead of stdout")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	if _, err := logging.Setup(logging.Config{Level: level, Format: "text"}, os.Stderr); err != nil {
		return err
	}

	profiles := buildProfiles(cfg.Providers)
	adapters, err := buildAdapters(cfg.Providers, profiles)
	if err != nil {
		return err
	}
	defer closeAdapters(adapters)

	table, err := buildRoutingTable(cfg, profiles)
	if err != nil {
		return err
	}

	cacheLayer, err := buildCache(cfg.Cache)
	if err != nil {
		return err
	}
	defer cacheLayer.Close()

	journalStore, err := buildJournalStore(cfg.Journal)
	if err != nil {
		return err
	}
	defer journalStore.Close()

	eng := engine.New(routing.NewRouter(table), cacheLayer, adapters,
		journal.NewRecorder(journalStore), nil, engine.Config{
			AttemptsPerProvider: cfg.Engine.AttemptsPerProvider,
			BackoffBase:         cfg.Engine.BackoffBase,
			BackoffCap:          cfg.Engine.BackoffCap,
			DefaultTimeout:      cfg.Engine.DefaultTimeout,
		})

	req := fetch.NewRequest(args[0], fetch.ContentClass(fetchFlags.class))
	req.Timeout = fetchFlags.timeout
	req.BypassCache = fetchFlags.bypassCache
	req.GeoCountry = fetchFlags.geoCountry
	for _, c := range fetchFlags.caps {
		req.Capabilities = append(req.Capabilities, fetch.Capability(c))
	}

	result, execErr := eng.Execute(context.Background(), req)

	for _, a := range result.Attempts {
		fmt.Fprintf(os.Stderr, "attempt %s: %s (%dms)\n",
			a.Provider, a.Outcome, a.Duration().Milliseconds())
	}
	fmt.Fprintf(os.Stderr, "outcome: %s", result.Outcome)
	if result.FromCache {
		fmt.Fprint(os.Stderr, " (cache)")
	} else if result.Provider != "" {
		fmt.Fprintf(os.Stderr, " (via %s)", result.Provider)
	}
	fmt.Fprintf(os.Stderr, ", %dms, %.1f cost units\n",
		result.Duration().Milliseconds(), result.CostUnits)

	if execErr != nil {
		return execErr
	}

	if fetchFlags.output != "" {
		return os.WriteFile(fetchFlags.output, result.Payload.Body, 0o644)
	}
	_, err = os.Stdout.Write(result.Payload.Body)
	return err
}
