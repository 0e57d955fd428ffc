package config

import "time"

// Default values applied to zero-valued configuration fields.
const (
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 120 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	DefaultProviderTimeout = 30 * time.Second
	DefaultPollInterval    = 2 * time.Second
	DefaultBurst           = 5
	DefaultPerSecond       = 1.0

	DefaultAttemptsPerProvider = 2
	DefaultBackoffBase         = 200 * time.Millisecond
	DefaultBackoffCap          = 5 * time.Second
	DefaultRequestTimeout      = 60 * time.Second

	DefaultCacheBackend  = "memory"
	DefaultSweepInterval = time.Minute
	DefaultCacheTTL      = 15 * time.Minute

	DefaultJournalBackend = "sqlite"
	DefaultJournalPath    = "data/journal.db"
	DefaultPruneSchedule  = "0 3 * * *"

	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultMetricsPath = "/metrics"
)

// defaultClassTTL is the freshness table applied to classes the file
// does not mention. Volatile classes get short windows, stable ones
// long.
var defaultClassTTL = map[string]time.Duration{
	"social-profile":  time.Hour,
	"social-timeline": 5 * time.Minute,
	"article":         24 * time.Hour,
	"generic-page":    15 * time.Minute,
}

// ApplyDefaults fills in default values for any zero-valued fields.
// It mutates cfg in place and never overrides an explicitly set value.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	for name, p := range cfg.Providers {
		if p.Timeout == 0 {
			p.Timeout = DefaultProviderTimeout
		}
		if p.PollInterval == 0 {
			p.PollInterval = DefaultPollInterval
		}
		if p.CostUnits == 0 {
			p.CostUnits = 1
		}
		if p.RateLimit.Burst == 0 {
			p.RateLimit.Burst = DefaultBurst
		}
		if p.RateLimit.PerSecond == 0 {
			p.RateLimit.PerSecond = DefaultPerSecond
		}
		cfg.Providers[name] = p
	}

	if cfg.Engine.AttemptsPerProvider == 0 {
		cfg.Engine.AttemptsPerProvider = DefaultAttemptsPerProvider
	}
	if cfg.Engine.BackoffBase == 0 {
		cfg.Engine.BackoffBase = DefaultBackoffBase
	}
	if cfg.Engine.BackoffCap == 0 {
		cfg.Engine.BackoffCap = DefaultBackoffCap
	}
	if cfg.Engine.DefaultTimeout == 0 {
		cfg.Engine.DefaultTimeout = DefaultRequestTimeout
	}

	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultCacheBackend
	}
	if cfg.Cache.SweepInterval == 0 {
		cfg.Cache.SweepInterval = DefaultSweepInterval
	}
	if cfg.Cache.DefaultTTL == 0 {
		cfg.Cache.DefaultTTL = DefaultCacheTTL
	}
	if cfg.Cache.ClassTTL == nil {
		cfg.Cache.ClassTTL = make(map[string]time.Duration)
	}
	for class, ttl := range defaultClassTTL {
		if _, ok := cfg.Cache.ClassTTL[class]; !ok {
			cfg.Cache.ClassTTL[class] = ttl
		}
	}

	if cfg.Journal.Backend == "" {
		cfg.Journal.Backend = DefaultJournalBackend
	}
	if cfg.Journal.SQLitePath == "" {
		cfg.Journal.SQLitePath = DefaultJournalPath
	}
	if cfg.Journal.PruneSchedule == "" {
		cfg.Journal.PruneSchedule = DefaultPruneSchedule
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}
