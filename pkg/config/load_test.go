package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validYAML = `
server:
  listen_address: "127.0.0.1:9090"
  read_timeout: "45s"

providers:
  pagegrab:
    type: actorrun
    base_url: "https://api.pagegrab.example"
    token: "test-token"
    timeout: "40s"
    capabilities: ["javascript-render", "structured-data"]
    cost_units: 10
    rate_limit:
      burst: 3
      per_second: 0.5
    weight: 50
  swiftproxy:
    type: resproxy
    base_url: "http://proxy.swift.example:22225"
    token: "proxy-token"
    capabilities: ["geo-targeting", "session-affinity"]
    cost_units: 1
    weight: 90

routing:
  rules:
    - class: social-profile
      providers: [pagegrab]
    - default: true
      providers: [swiftproxy, pagegrab]

engine:
  attempts_per_provider: 3
  backoff_base: "100ms"

cache:
  backend: memory
  default_ttl: "10m"
  class_ttl:
    article: "48h"

journal:
  backend: memory
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "courier.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:9090" {
		t.Errorf("listen address = %q, want 127.0.0.1:9090", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("read timeout = %v, want 45s", cfg.Server.ReadTimeout)
	}
	// Defaults fill what the file omits.
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("write timeout = %v, want default %v", cfg.Server.WriteTimeout, DefaultWriteTimeout)
	}

	pg, ok := cfg.Providers["pagegrab"]
	if !ok {
		t.Fatal("provider pagegrab not loaded")
	}
	if pg.Timeout != 40*time.Second {
		t.Errorf("pagegrab timeout = %v, want 40s", pg.Timeout)
	}
	if pg.RateLimit.Burst != 3 || pg.RateLimit.PerSecond != 0.5 {
		t.Errorf("pagegrab rate limit = %+v, want burst 3 per_second 0.5", pg.RateLimit)
	}

	sp := cfg.Providers["swiftproxy"]
	if sp.RateLimit.Burst != DefaultBurst {
		t.Errorf("swiftproxy burst = %d, want default %d", sp.RateLimit.Burst, DefaultBurst)
	}
	if sp.PollInterval != DefaultPollInterval {
		t.Errorf("swiftproxy poll interval = %v, want default %v", sp.PollInterval, DefaultPollInterval)
	}

	if len(cfg.Routing.Rules) != 2 {
		t.Fatalf("rules = %d, want 2", len(cfg.Routing.Rules))
	}

	if cfg.Engine.AttemptsPerProvider != 3 {
		t.Errorf("attempts per provider = %d, want 3", cfg.Engine.AttemptsPerProvider)
	}
	if cfg.Engine.BackoffBase != 100*time.Millisecond {
		t.Errorf("backoff base = %v, want 100ms", cfg.Engine.BackoffBase)
	}
	if cfg.Engine.BackoffCap != DefaultBackoffCap {
		t.Errorf("backoff cap = %v, want default %v", cfg.Engine.BackoffCap, DefaultBackoffCap)
	}

	if cfg.Cache.DefaultTTL != 10*time.Minute {
		t.Errorf("default TTL = %v, want 10m", cfg.Cache.DefaultTTL)
	}
	if cfg.Cache.ClassTTL["article"] != 48*time.Hour {
		t.Errorf("article TTL = %v, want 48h", cfg.Cache.ClassTTL["article"])
	}
	// Unmentioned classes get the built-in table.
	if cfg.Cache.ClassTTL["social-timeline"] != 5*time.Minute {
		t.Errorf("social-timeline TTL = %v, want default 5m", cfg.Cache.ClassTTL["social-timeline"])
	}

	if cfg.Telemetry.Logging.Level != DefaultLogLevel {
		t.Errorf("log level = %q, want default %q", cfg.Telemetry.Logging.Level, DefaultLogLevel)
	}
	if !cfg.Telemetry.Metrics.MetricsEnabled() {
		t.Error("metrics should default to enabled")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "providers: ["))
	if err == nil {
		t.Fatal("expected error for malformed YAML")
	}
	if !strings.Contains(err.Error(), "parse") {
		t.Errorf("error %q should mention parsing", err)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	t.Setenv("COURIER_SERVER_LISTEN_ADDRESS", "0.0.0.0:7000")
	t.Setenv("COURIER_ENGINE_ATTEMPTS_PER_PROVIDER", "1")
	t.Setenv("COURIER_PROVIDERS_PAGEGRAB_TOKEN", "env-token")
	t.Setenv("COURIER_PROVIDERS_PAGEGRAB_TIMEOUT", "5s")

	cfg, err := LoadConfigWithEnvOverrides(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides failed: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:7000" {
		t.Errorf("listen address = %q, want env override 0.0.0.0:7000", cfg.Server.ListenAddress)
	}
	if cfg.Engine.AttemptsPerProvider != 1 {
		t.Errorf("attempts per provider = %d, want env override 1", cfg.Engine.AttemptsPerProvider)
	}
	pg := cfg.Providers["pagegrab"]
	if pg.Token != "env-token" {
		t.Errorf("pagegrab token = %q, want env override", pg.Token)
	}
	if pg.Timeout != 5*time.Second {
		t.Errorf("pagegrab timeout = %v, want env override 5s", pg.Timeout)
	}
}

func TestLoadConfigEnvOverrideFailsValidation(t *testing.T) {
	t.Setenv("COURIER_SERVER_LISTEN_ADDRESS", "")
	t.Setenv("COURIER_TELEMETRY_LOGGING_LEVEL", "loud")

	_, err := LoadConfigWithEnvOverrides(writeConfig(t, validYAML))
	if err == nil {
		t.Fatal("expected validation failure for bad log level override")
	}
}

func TestResolveToken(t *testing.T) {
	t.Setenv("PAGEGRAB_TOKEN", "from-env")

	p := ProviderConfig{Token: "inline", TokenEnv: "PAGEGRAB_TOKEN"}
	if got := p.ResolveToken(); got != "from-env" {
		t.Errorf("ResolveToken = %q, want from-env", got)
	}

	p.TokenEnv = "PAGEGRAB_TOKEN_UNSET"
	if got := p.ResolveToken(); got != "inline" {
		t.Errorf("ResolveToken = %q, want inline fallback", got)
	}
}
