package config

import (
	"fmt"
	"net/url"
	"strings"
)

// knownClasses are the content classes routing rules and TTL entries
// may reference.
var knownClasses = map[string]bool{
	"social-profile":  true,
	"social-timeline": true,
	"article":         true,
	"generic-page":    true,
}

// knownCapabilities are the capability flags a provider may declare.
var knownCapabilities = map[string]bool{
	"javascript-render": true,
	"geo-targeting":     true,
	"session-affinity":  true,
	"structured-data":   true,
}

// knownAdapterTypes are the adapter implementations the factory can
// construct.
var knownAdapterTypes = map[string]bool{
	"actorrun": true,
	"unlocker": true,
	"resproxy": true,
}

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a
// ValidationError if any rule fails. All errors are collected and
// returned together so the operator fixes the file in one pass.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateProviders(cfg.Providers)...)
	errs = append(errs, validateRouting(&cfg.Routing, cfg.Providers)...)
	errs = append(errs, validateEngine(&cfg.Engine)...)
	errs = append(errs, validateCache(&cfg.Cache)...)
	errs = append(errs, validateJournal(&cfg.Journal)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateServer validates HTTP service configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout must be positive",
		})
	}

	return errs
}

// validateProviders validates provider configurations.
func validateProviders(providers map[string]ProviderConfig) []FieldError {
	var errs []FieldError

	if len(providers) == 0 {
		errs = append(errs, FieldError{
			Field:   "providers",
			Message: "at least one provider must be configured",
		})
		return errs
	}

	for name, provider := range providers {
		prefix := fmt.Sprintf("providers.%s", name)

		if !knownAdapterTypes[provider.Type] {
			errs = append(errs, FieldError{
				Field:   prefix + ".type",
				Message: fmt.Sprintf("invalid type %q: must be 'actorrun', 'unlocker', or 'resproxy'", provider.Type),
			})
		}

		if provider.BaseURL == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".base_url",
				Message: "base URL is required",
			})
		} else if _, err := url.Parse(provider.BaseURL); err != nil {
			errs = append(errs, FieldError{
				Field:   prefix + ".base_url",
				Message: fmt.Sprintf("invalid URL format: %v", err),
			})
		}

		// Tokens may be injected via token_env at runtime, so an empty
		// token is not a validation error here; the adapter refuses
		// requests with a permanent error instead.

		if provider.Timeout < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".timeout",
				Message: "timeout must be positive",
			})
		}

		for _, cap := range provider.Capabilities {
			if !knownCapabilities[cap] {
				errs = append(errs, FieldError{
					Field:   prefix + ".capabilities",
					Message: fmt.Sprintf("unknown capability %q", cap),
				})
			}
		}

		if provider.CostUnits < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".cost_units",
				Message: "cost units must be non-negative",
			})
		}
		if provider.RateLimit.Burst < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".rate_limit.burst",
				Message: "burst must be non-negative",
			})
		}
		if provider.RateLimit.PerSecond < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".rate_limit.per_second",
				Message: "per second rate must be non-negative",
			})
		}
	}

	return errs
}

// validateRouting validates the rule list against the provider set.
func validateRouting(cfg *RoutingConfig, providers map[string]ProviderConfig) []FieldError {
	var errs []FieldError

	defaults := 0
	seenTargets := make(map[string]bool)
	seenClasses := make(map[string]bool)

	for i, rule := range cfg.Rules {
		prefix := fmt.Sprintf("routing.rules[%d]", i)

		selectors := 0
		if rule.Target != "" {
			selectors++
			if seenTargets[rule.Target] {
				errs = append(errs, FieldError{
					Field:   prefix + ".target",
					Message: fmt.Sprintf("duplicate rule for target %q", rule.Target),
				})
			}
			seenTargets[rule.Target] = true
		}
		if rule.Class != "" {
			selectors++
			if !knownClasses[rule.Class] {
				errs = append(errs, FieldError{
					Field:   prefix + ".class",
					Message: fmt.Sprintf("unknown content class %q", rule.Class),
				})
			}
			if seenClasses[rule.Class] {
				errs = append(errs, FieldError{
					Field:   prefix + ".class",
					Message: fmt.Sprintf("duplicate rule for class %q", rule.Class),
				})
			}
			seenClasses[rule.Class] = true
		}
		if rule.Default {
			selectors++
			defaults++
		}
		if selectors != 1 {
			errs = append(errs, FieldError{
				Field:   prefix,
				Message: "exactly one of target, class, or default must be set",
			})
		}

		if len(rule.Providers) == 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".providers",
				Message: "at least one provider is required",
			})
		}
		for _, name := range rule.Providers {
			if _, ok := providers[name]; !ok {
				errs = append(errs, FieldError{
					Field:   prefix + ".providers",
					Message: fmt.Sprintf("unknown provider %q", name),
				})
			}
		}
	}

	if defaults != 1 {
		errs = append(errs, FieldError{
			Field:   "routing.rules",
			Message: fmt.Sprintf("exactly one default rule is required, found %d", defaults),
		})
	}

	return errs
}

// validateEngine validates orchestration tunables.
func validateEngine(cfg *EngineConfig) []FieldError {
	var errs []FieldError

	if cfg.AttemptsPerProvider < 1 {
		errs = append(errs, FieldError{
			Field:   "engine.attempts_per_provider",
			Message: "attempts per provider must be at least 1",
		})
	}
	if cfg.AttemptsPerProvider > 10 {
		errs = append(errs, FieldError{
			Field:   "engine.attempts_per_provider",
			Message: "attempts per provider exceeds reasonable limit (10)",
		})
	}
	if cfg.BackoffBase < 0 {
		errs = append(errs, FieldError{
			Field:   "engine.backoff_base",
			Message: "backoff base must be positive",
		})
	}
	if cfg.BackoffCap < cfg.BackoffBase {
		errs = append(errs, FieldError{
			Field:   "engine.backoff_cap",
			Message: "backoff cap must not be below backoff base",
		})
	}
	if cfg.DefaultTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "engine.default_timeout",
			Message: "default timeout must be positive",
		})
	}

	return errs
}

// validateCache validates the cache layer configuration.
func validateCache(cfg *CacheConfig) []FieldError {
	var errs []FieldError

	validBackends := map[string]bool{"memory": true, "sqlite": true}
	if !validBackends[cfg.Backend] {
		errs = append(errs, FieldError{
			Field:   "cache.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory' or 'sqlite'", cfg.Backend),
		})
	}
	if cfg.Backend == "sqlite" && cfg.SQLitePath == "" {
		errs = append(errs, FieldError{
			Field:   "cache.sqlite_path",
			Message: "SQLite path is required when backend is 'sqlite'",
		})
	}
	if cfg.SweepInterval < 0 {
		errs = append(errs, FieldError{
			Field:   "cache.sweep_interval",
			Message: "sweep interval must be non-negative",
		})
	}
	if cfg.DefaultTTL <= 0 {
		errs = append(errs, FieldError{
			Field:   "cache.default_ttl",
			Message: "default TTL must be positive",
		})
	}
	for class, ttl := range cfg.ClassTTL {
		if !knownClasses[class] {
			errs = append(errs, FieldError{
				Field:   "cache.class_ttl",
				Message: fmt.Sprintf("unknown content class %q", class),
			})
		}
		if ttl <= 0 {
			errs = append(errs, FieldError{
				Field:   "cache.class_ttl." + class,
				Message: "TTL must be positive",
			})
		}
	}

	return errs
}

// validateJournal validates the journal configuration.
func validateJournal(cfg *JournalConfig) []FieldError {
	var errs []FieldError

	validBackends := map[string]bool{"memory": true, "sqlite": true}
	if !validBackends[cfg.Backend] {
		errs = append(errs, FieldError{
			Field:   "journal.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory' or 'sqlite'", cfg.Backend),
		})
	}
	if cfg.Backend == "sqlite" && cfg.SQLitePath == "" {
		errs = append(errs, FieldError{
			Field:   "journal.sqlite_path",
			Message: "SQLite path is required when backend is 'sqlite'",
		})
	}
	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "journal.retention_days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.RetentionDays > 3650 {
		errs = append(errs, FieldError{
			Field:   "journal.retention_days",
			Message: "retention days exceeds reasonable limit (3650 days / 10 years)",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.MetricsEnabled() && cfg.Metrics.Path == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path is required when metrics are enabled",
		})
	}
	if cfg.Metrics.Path != "" && cfg.Metrics.Path[0] != '/' {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}

	return errs
}
