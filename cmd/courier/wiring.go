package main

import (
	"fmt"
	"time"

	"pagewell-hq/courier/pkg/cache"
	"pagewell-hq/courier/pkg/config"
	"pagewell-hq/courier/pkg/fetch"
	"pagewell-hq/courier/pkg/journal"
	"pagewell-hq/courier/pkg/providers"
	"pagewell-hq/courier/pkg/providers/actorrun"
	"pagewell-hq/courier/pkg/providers/resproxy"
	"pagewell-hq/courier/pkg/providers/unlocker"
	"pagewell-hq/courier/pkg/routing"
)

// buildProfiles converts provider configuration into static profiles.
func buildProfiles(cfgs map[string]config.ProviderConfig) map[string]providers.Profile {
	profiles := make(map[string]providers.Profile, len(cfgs))
	for name, pc := range cfgs {
		caps := make([]fetch.Capability, 0, len(pc.Capabilities))
		for _, c := range pc.Capabilities {
			caps = append(caps, fetch.Capability(c))
		}
		profiles[name] = providers.Profile{
			Name:         name,
			Capabilities: caps,
			CostUnits:    pc.CostUnits,
			RateLimit: providers.RateLimit{
				Burst:     pc.RateLimit.Burst,
				PerSecond: pc.RateLimit.PerSecond,
			},
			Weight: pc.Weight,
		}
	}
	return profiles
}

// buildAdapters constructs one adapter per configured provider. On
// error, adapters constructed so far are closed.
func buildAdapters(cfgs map[string]config.ProviderConfig, profiles map[string]providers.Profile) (map[string]providers.Adapter, error) {
	adapters := make(map[string]providers.Adapter, len(cfgs))

	for name, pc := range cfgs {
		adapterCfg := providers.Config{
			Name:         name,
			BaseURL:      pc.BaseURL,
			Token:        pc.ResolveToken(),
			Timeout:      pc.Timeout,
			PollInterval: pc.PollInterval,
		}

		var (
			adapter providers.Adapter
			err     error
		)
		switch pc.Type {
		case "actorrun":
			adapter, err = actorrun.New(adapterCfg, profiles[name])
		case "unlocker":
			adapter, err = unlocker.New(adapterCfg, profiles[name])
		case "resproxy":
			adapter, err = resproxy.New(adapterCfg, profiles[name])
		default:
			err = fmt.Errorf("unknown adapter type %q", pc.Type)
		}
		if err != nil {
			closeAdapters(adapters)
			return nil, fmt.Errorf("provider %q: %w", name, err)
		}
		adapters[name] = adapter
	}

	return adapters, nil
}

func closeAdapters(adapters map[string]providers.Adapter) {
	for _, a := range adapters {
		_ = a.Close()
	}
}

// buildRoutingTable converts rule configuration into a routing table.
func buildRoutingTable(cfg *config.Config, profiles map[string]providers.Profile) (*routing.Table, error) {
	rules := make([]routing.Rule, 0, len(cfg.Routing.Rules))
	for _, rc := range cfg.Routing.Rules {
		rule := routing.Rule{Providers: rc.Providers}
		switch {
		case rc.Target != "":
			rule.Kind = routing.KindExact
			rule.Target = rc.Target
		case rc.Class != "":
			rule.Kind = routing.KindClass
			rule.Class = fetch.ContentClass(rc.Class)
		default:
			rule.Kind = routing.KindWildcard
		}
		rules = append(rules, rule)
	}
	return routing.NewTable(rules, profiles)
}

// buildCache constructs the cache layer per configuration.
func buildCache(cfg config.CacheConfig) (*cache.Cache, error) {
	var store cache.Store
	switch cfg.Backend {
	case "memory":
		store = cache.NewMemoryStore()
	case "sqlite":
		s, err := cache.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("cache backend: %w", err)
		}
		store = s
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.Backend)
	}

	return cache.New(store, buildTTLTable(cfg), cfg.SweepInterval), nil
}

// buildTTLTable converts the configured per-class TTLs into the cache's
// lookup table.
func buildTTLTable(cfg config.CacheConfig) cache.TTLTable {
	ttl := cache.TTLTable{
		ByClass: make(map[fetch.ContentClass]time.Duration, len(cfg.ClassTTL)),
		Default: cfg.DefaultTTL,
	}
	for class, d := range cfg.ClassTTL {
		ttl.ByClass[fetch.ContentClass(class)] = d
	}
	return ttl
}

// buildJournalStore constructs the journal backend per configuration.
func buildJournalStore(cfg config.JournalConfig) (journal.Store, error) {
	switch cfg.Backend {
	case "memory":
		return journal.NewMemoryStore(), nil
	case "sqlite":
		return journal.NewSQLiteStore(&journal.SQLiteConfig{Path: cfg.SQLitePath})
	}
	return nil, fmt.Errorf("unsupported journal backend %q", cfg.Backend)
}
