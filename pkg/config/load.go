package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the given path,
// applies defaults, and validates the result. Environment variables are
// not consulted; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Variables follow the naming
// convention COURIER_SECTION_FIELD (e.g. COURIER_SERVER_LISTEN_ADDRESS)
// and always take precedence over file values.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies COURIER_* environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("COURIER_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("COURIER_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("COURIER_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("COURIER_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}

	// Provider overrides apply to every configured provider, so names
	// do not need to be hard-coded.
	for name := range cfg.Providers {
		applyProviderEnvOverrides(cfg, name)
	}

	// Engine overrides
	if val := os.Getenv("COURIER_ENGINE_ATTEMPTS_PER_PROVIDER"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Engine.AttemptsPerProvider = i
		}
	}
	if val := os.Getenv("COURIER_ENGINE_BACKOFF_BASE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Engine.BackoffBase = d
		}
	}
	if val := os.Getenv("COURIER_ENGINE_BACKOFF_CAP"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Engine.BackoffCap = d
		}
	}
	if val := os.Getenv("COURIER_ENGINE_DEFAULT_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Engine.DefaultTimeout = d
		}
	}

	// Cache overrides
	if val := os.Getenv("COURIER_CACHE_BACKEND"); val != "" {
		cfg.Cache.Backend = val
	}
	if val := os.Getenv("COURIER_CACHE_SQLITE_PATH"); val != "" {
		cfg.Cache.SQLitePath = val
	}
	if val := os.Getenv("COURIER_CACHE_SWEEP_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Cache.SweepInterval = d
		}
	}
	if val := os.Getenv("COURIER_CACHE_DEFAULT_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Cache.DefaultTTL = d
		}
	}

	// Journal overrides
	if val := os.Getenv("COURIER_JOURNAL_BACKEND"); val != "" {
		cfg.Journal.Backend = val
	}
	if val := os.Getenv("COURIER_JOURNAL_SQLITE_PATH"); val != "" {
		cfg.Journal.SQLitePath = val
	}
	if val := os.Getenv("COURIER_JOURNAL_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Journal.RetentionDays = i
		}
	}
	if val := os.Getenv("COURIER_JOURNAL_PRUNE_SCHEDULE"); val != "" {
		cfg.Journal.PruneSchedule = val
	}

	// Telemetry overrides
	if val := os.Getenv("COURIER_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("COURIER_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("COURIER_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = &b
		}
	}
	if val := os.Getenv("COURIER_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
}

// applyProviderEnvOverrides applies environment variable overrides for
// one provider. Variables follow the format COURIER_PROVIDERS_<NAME>_<FIELD>
// where NAME is the uppercase provider name with dashes mapped to
// underscores.
func applyProviderEnvOverrides(cfg *Config, providerName string) {
	provider := cfg.Providers[providerName]

	env := strings.ReplaceAll(strings.ToUpper(providerName), "-", "_")
	prefix := fmt.Sprintf("COURIER_PROVIDERS_%s_", env)

	if val := os.Getenv(prefix + "BASE_URL"); val != "" {
		provider.BaseURL = val
	}
	if val := os.Getenv(prefix + "TOKEN"); val != "" {
		provider.Token = val
	}
	if val := os.Getenv(prefix + "TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			provider.Timeout = d
		}
	}
	if val := os.Getenv(prefix + "WEIGHT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			provider.Weight = i
		}
	}

	cfg.Providers[providerName] = provider
}

// ResolveToken returns the provider credential, preferring TokenEnv
// when it names a non-empty environment variable.
func (p ProviderConfig) ResolveToken() string {
	if p.TokenEnv != "" {
		if val := os.Getenv(p.TokenEnv); val != "" {
			return val
		}
	}
	return p.Token
}
