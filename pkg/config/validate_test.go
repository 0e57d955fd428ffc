package config

import (
	"strings"
	"testing"
	"time"
)

// baseConfig returns a configuration that passes validation; tests
// break one field at a time.
func baseConfig() *Config {
	cfg := &Config{
		Providers: map[string]ProviderConfig{
			"pagegrab": {
				Type:         "actorrun",
				BaseURL:      "https://api.pagegrab.example",
				Capabilities: []string{"javascript-render"},
			},
			"swiftproxy": {
				Type:    "resproxy",
				BaseURL: "http://proxy.swift.example:22225",
			},
		},
		Routing: RoutingConfig{
			Rules: []RuleConfig{
				{Class: "article", Providers: []string{"pagegrab"}},
				{Default: true, Providers: []string{"swiftproxy"}},
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected validation error for %s", field)
	}
	var verr ValidationError
	if !asValidationError(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	for _, fe := range verr.Errors {
		if fe.Field == field {
			return
		}
	}
	t.Errorf("no error for field %s in %v", field, verr.Errors)
}

func asValidationError(err error, target *ValidationError) bool {
	verr, ok := err.(ValidationError)
	if ok {
		*target = verr
	}
	return ok
}

func TestValidateAcceptsBaseConfig(t *testing.T) {
	if err := Validate(baseConfig()); err != nil {
		t.Fatalf("base config should validate: %v", err)
	}
}

func TestValidateNoProviders(t *testing.T) {
	cfg := baseConfig()
	cfg.Providers = nil
	assertFieldError(t, Validate(cfg), "providers")
}

func TestValidateProviderType(t *testing.T) {
	cfg := baseConfig()
	p := cfg.Providers["pagegrab"]
	p.Type = "carrier-pigeon"
	cfg.Providers["pagegrab"] = p
	assertFieldError(t, Validate(cfg), "providers.pagegrab.type")
}

func TestValidateProviderBaseURL(t *testing.T) {
	cfg := baseConfig()
	p := cfg.Providers["pagegrab"]
	p.BaseURL = ""
	cfg.Providers["pagegrab"] = p
	assertFieldError(t, Validate(cfg), "providers.pagegrab.base_url")
}

func TestValidateProviderCapability(t *testing.T) {
	cfg := baseConfig()
	p := cfg.Providers["pagegrab"]
	p.Capabilities = []string{"mind-reading"}
	cfg.Providers["pagegrab"] = p
	assertFieldError(t, Validate(cfg), "providers.pagegrab.capabilities")
}

func TestValidateRoutingRequiresDefault(t *testing.T) {
	cfg := baseConfig()
	cfg.Routing.Rules = cfg.Routing.Rules[:1]
	assertFieldError(t, Validate(cfg), "routing.rules")
}

func TestValidateRoutingRejectsTwoDefaults(t *testing.T) {
	cfg := baseConfig()
	cfg.Routing.Rules = append(cfg.Routing.Rules,
		RuleConfig{Default: true, Providers: []string{"pagegrab"}})
	assertFieldError(t, Validate(cfg), "routing.rules")
}

func TestValidateRoutingRejectsAmbiguousRule(t *testing.T) {
	cfg := baseConfig()
	cfg.Routing.Rules[0].Target = "example.com/profile"
	assertFieldError(t, Validate(cfg), "routing.rules[0]")
}

func TestValidateRoutingUnknownProvider(t *testing.T) {
	cfg := baseConfig()
	cfg.Routing.Rules[0].Providers = []string{"ghost"}
	assertFieldError(t, Validate(cfg), "routing.rules[0].providers")
}

func TestValidateRoutingUnknownClass(t *testing.T) {
	cfg := baseConfig()
	cfg.Routing.Rules[0].Class = "cat-videos"
	assertFieldError(t, Validate(cfg), "routing.rules[0].class")
}

func TestValidateRoutingDuplicateClassRule(t *testing.T) {
	cfg := baseConfig()
	cfg.Routing.Rules = append(cfg.Routing.Rules,
		RuleConfig{Class: "article", Providers: []string{"swiftproxy"}})
	assertFieldError(t, Validate(cfg), "routing.rules[2].class")
}

func TestValidateEngineBounds(t *testing.T) {
	cfg := baseConfig()
	cfg.Engine.AttemptsPerProvider = 0
	assertFieldError(t, Validate(cfg), "engine.attempts_per_provider")

	cfg = baseConfig()
	cfg.Engine.BackoffCap = cfg.Engine.BackoffBase - time.Millisecond
	assertFieldError(t, Validate(cfg), "engine.backoff_cap")
}

func TestValidateCacheSQLiteNeedsPath(t *testing.T) {
	cfg := baseConfig()
	cfg.Cache.Backend = "sqlite"
	cfg.Cache.SQLitePath = ""
	assertFieldError(t, Validate(cfg), "cache.sqlite_path")
}

func TestValidateJournalBackend(t *testing.T) {
	cfg := baseConfig()
	cfg.Journal.Backend = "postgres"
	assertFieldError(t, Validate(cfg), "journal.backend")
}

func TestValidateLoggingLevel(t *testing.T) {
	cfg := baseConfig()
	cfg.Telemetry.Logging.Level = "loud"
	assertFieldError(t, Validate(cfg), "telemetry.logging.level")
}

func TestValidationErrorMessageCollectsAll(t *testing.T) {
	cfg := baseConfig()
	cfg.Telemetry.Logging.Level = "loud"
	cfg.Telemetry.Logging.Format = "xml"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "2 errors") {
		t.Errorf("error message should report both failures, got %q", msg)
	}
}
