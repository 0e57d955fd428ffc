package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pagewell-hq/courier/pkg/cache"
	"pagewell-hq/courier/pkg/config"
	"pagewell-hq/courier/pkg/engine"
	"pagewell-hq/courier/pkg/journal"
	"pagewell-hq/courier/pkg/providers"
	"pagewell-hq/courier/pkg/routing"
	"pagewell-hq/courier/pkg/server"
	"pagewell-hq/courier/pkg/telemetry/logging"
	"pagewell-hq/courier/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	watch         bool
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Courier fetch service",
	Long: `Start the Courier fetch service with the specified configuration.

The server listens on the configured address and serves fetch requests
through the routing, fallback, caching, and journaling pipeline.

Examples:
  # Start with default config
  courier run

  # Start with custom config
  courier run --config /etc/courier/config.yaml

  # Override listen address
  courier run --listen 0.0.0.0:8080

  # Reload routing rules when the config file changes
  courier run --watch

  # Validate config without starting the server
  courier run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.watch, "watch", false, "reload routing rules on config file change")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	if _, err := logging.Setup(logging.Config{
		Level:  cfg.Telemetry.Logging.Level,
		Format: cfg.Telemetry.Logging.Format,
	}, os.Stderr); err != nil {
		return err
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Courier v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)

	// Providers
	profiles := buildProfiles(cfg.Providers)
	adapters, err := buildAdapters(cfg.Providers, profiles)
	if err != nil {
		return err
	}
	defer closeAdapters(adapters)
	fmt.Printf("✓ Providers initialized (%d providers)\n", len(adapters))

	// Routing
	table, err := buildRoutingTable(cfg, profiles)
	if err != nil {
		return err
	}
	router := routing.NewRouter(table)
	fmt.Printf("✓ Routing table loaded (%d rules)\n", len(cfg.Routing.Rules))

	// Cache
	cacheLayer, err := buildCache(cfg.Cache)
	if err != nil {
		return err
	}
	defer cacheLayer.Close()
	fmt.Printf("✓ Cache initialized (%s backend)\n", cfg.Cache.Backend)

	// Journal
	journalStore, err := buildJournalStore(cfg.Journal)
	if err != nil {
		return err
	}
	defer journalStore.Close()
	recorder := journal.NewRecorder(journalStore)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	retention := journal.NewRetentionScheduler(journalStore, journal.RetentionConfig{
		Days:     cfg.Journal.RetentionDays,
		Schedule: cfg.Journal.PruneSchedule,
	})
	if err := retention.Start(ctx); err != nil {
		slog.Warn("failed to start journal retention scheduler", "error", err)
	} else {
		defer retention.Stop()
	}
	fmt.Printf("✓ Journal initialized (%s backend)\n", cfg.Journal.Backend)

	// Telemetry
	collector := metrics.NewCollector()
	go watchProviderHealth(ctx, adapters, collector)

	metricsHandler := collector.Handler()
	if !cfg.Telemetry.Metrics.MetricsEnabled() {
		metricsHandler = nil
	}

	// Engine
	eng := engine.New(router, cacheLayer, adapters, recorder, collector, engine.Config{
		AttemptsPerProvider: cfg.Engine.AttemptsPerProvider,
		BackoffBase:         cfg.Engine.BackoffBase,
		BackoffCap:          cfg.Engine.BackoffCap,
		DefaultTimeout:      cfg.Engine.DefaultTimeout,
	})

	// Hot reload of routing rules
	if runFlags.watch {
		watcher := config.NewWatcher(cfgFile)
		go func() {
			err := watcher.Watch(ctx, func(next *config.Config) {
				applyReload(router, cacheLayer, next, adapters)
			})
			if err != nil {
				slog.Error("config watcher exited", "error", err)
			}
		}()
	}

	srv := server.New(cfg.Server, eng, adapters, metricsHandler, cfg.Telemetry.Metrics.Path)

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/healthz\n", cfg.Server.ListenAddress)
	if metricsHandler != nil {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Start blocks until SIGINT/SIGTERM or context cancellation and
	// shuts down gracefully.
	return srv.Start(ctx)
}

// applyReload swaps the routing table and cache TTL windows from a
// reloaded configuration. Provider additions and removals require a
// restart: only rules over the already-constructed adapters can change
// at runtime, so rules referencing providers without an adapter are
// rejected here.
func applyReload(router *routing.Router, cacheLayer *cache.Cache, next *config.Config, adapters map[string]providers.Adapter) {
	for _, rule := range next.Routing.Rules {
		for _, name := range rule.Providers {
			if _, ok := adapters[name]; !ok {
				slog.Error("reloaded routing rules reference a provider with no adapter, keeping previous table",
					"provider", name)
				return
			}
		}
	}

	profiles := buildProfiles(next.Providers)
	table, err := buildRoutingTable(next, profiles)
	if err != nil {
		slog.Error("reloaded routing rules are invalid, keeping previous table", "error", err)
		return
	}
	router.Swap(table)
	cacheLayer.SetTTL(buildTTLTable(next.Cache))
	slog.Info("configuration reloaded", "rules", len(next.Routing.Rules))
}

// watchProviderHealth mirrors adapter circuit state into the health
// gauge until the context ends.
func watchProviderHealth(ctx context.Context, adapters map[string]providers.Adapter, collector *metrics.Collector) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for name, adapter := range adapters {
				collector.SetProviderHealth(name, adapter.Health().Healthy)
			}
		}
	}
}
