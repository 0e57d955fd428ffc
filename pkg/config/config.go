package config

import "time"

// Config is the root configuration structure for Courier.
type Config struct {
	// Server contains the HTTP service configuration.
	Server ServerConfig `yaml:"server"`

	// Providers contains one entry per configured provider, keyed by
	// provider name.
	Providers map[string]ProviderConfig `yaml:"providers"`

	// Routing contains the rule list consulted per request.
	Routing RoutingConfig `yaml:"routing"`

	// Engine contains the orchestration tunables: retry bound, backoff
	// curve, default timeout.
	Engine EngineConfig `yaml:"engine"`

	// Cache contains the cache layer configuration including the
	// TTL-per-content-class table.
	Cache CacheConfig `yaml:"cache"`

	// Journal contains the append-only fetch record store
	// configuration.
	Journal JournalConfig `yaml:"journal"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	// ListenAddress is the host:port to serve on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout and WriteTimeout bound request IO.
	// Defaults: 30s / 120s. WriteTimeout must cover the longest fetch.
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout caps graceful shutdown. Default: 15s.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ProviderConfig configures a single provider adapter.
type ProviderConfig struct {
	// Type selects the adapter implementation: actorrun, unlocker, or
	// resproxy.
	Type string `yaml:"type"`

	// BaseURL is the provider endpoint (API base or proxy host:port).
	BaseURL string `yaml:"base_url"`

	// Token is the provider credential. Prefer TokenEnv in committed
	// files; Token exists for local development.
	Token string `yaml:"token"`

	// TokenEnv names an environment variable holding the credential.
	// When set it takes precedence over Token.
	TokenEnv string `yaml:"token_env"`

	// Timeout caps one invocation. Default: 30s.
	Timeout time.Duration `yaml:"timeout"`

	// PollInterval is the status poll cadence for async adapters.
	PollInterval time.Duration `yaml:"poll_interval"`

	// Capabilities lists the capability flags the provider declares.
	Capabilities []string `yaml:"capabilities"`

	// CostUnits is the relative cost of one invocation.
	CostUnits float64 `yaml:"cost_units"`

	// RateLimit declares the provider's request budget.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Weight is the tie-break priority; higher wins.
	Weight int `yaml:"weight"`
}

// RateLimitConfig declares a provider's token bucket.
type RateLimitConfig struct {
	// Burst is the bucket capacity. Default: 5.
	Burst int64 `yaml:"burst"`

	// PerSecond is the sustained refill rate. Default: 1.
	PerSecond float64 `yaml:"per_second"`
}

// RoutingConfig holds the rule list. Exactly one rule must be the
// wildcard default.
type RoutingConfig struct {
	// Rules are evaluated most-specific-first; order in this list does
	// not matter beyond provider preference inside each rule.
	Rules []RuleConfig `yaml:"rules"`
}

// RuleConfig is one routing rule. Exactly one of Target, Class, or
// Default selects the rule kind.
type RuleConfig struct {
	// Target makes this an exact-target rule.
	Target string `yaml:"target"`

	// Class makes this a content-class rule.
	Class string `yaml:"class"`

	// Default marks the wildcard rule.
	Default bool `yaml:"default"`

	// Providers is the ordered preference list.
	Providers []string `yaml:"providers"`
}

// EngineConfig holds orchestration tunables.
type EngineConfig struct {
	// AttemptsPerProvider bounds invocations of one provider per
	// request, first try included. Default: 2.
	AttemptsPerProvider int `yaml:"attempts_per_provider"`

	// BackoffBase is the first-retry delay, doubling per retry.
	// Default: 200ms.
	BackoffBase time.Duration `yaml:"backoff_base"`

	// BackoffCap caps the retry delay. Default: 5s.
	BackoffCap time.Duration `yaml:"backoff_cap"`

	// DefaultTimeout applies to requests without their own timeout.
	// Default: 60s.
	DefaultTimeout time.Duration `yaml:"default_timeout"`
}

// CacheConfig configures the cache layer.
type CacheConfig struct {
	// Backend selects the store: "memory" (default) or "sqlite".
	Backend string `yaml:"backend"`

	// SQLitePath is the cache database file for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`

	// SweepInterval is the background eviction cadence. Default: 1m.
	SweepInterval time.Duration `yaml:"sweep_interval"`

	// DefaultTTL applies to classes without an explicit entry.
	// Default: 15m.
	DefaultTTL time.Duration `yaml:"default_ttl"`

	// ClassTTL maps content class names to freshness windows.
	ClassTTL map[string]time.Duration `yaml:"class_ttl"`
}

// JournalConfig configures the append-only fetch record store.
type JournalConfig struct {
	// Backend selects the store: "sqlite" (default) or "memory".
	Backend string `yaml:"backend"`

	// SQLitePath is the journal database file.
	// Default: "data/journal.db"
	SQLitePath string `yaml:"sqlite_path"`

	// RetentionDays is how long records are kept; 0 keeps forever.
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is the cron expression for retention pruning.
	// Default: "0 3 * * *" (daily at 3 AM) when RetentionDays > 0.
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig configures observability.
type TelemetryConfig struct {
	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures slog.
type LoggingConfig struct {
	// Level is debug, info, warn, or error. Default: info.
	Level string `yaml:"level"`

	// Format is json or text. Default: json.
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled controls whether /metrics is served. Default: true.
	Enabled *bool `yaml:"enabled"`

	// Path is the exposition path. Default: "/metrics".
	Path string `yaml:"path"`
}

// MetricsEnabled resolves the tri-state Enabled flag.
func (m *MetricsConfig) MetricsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}
