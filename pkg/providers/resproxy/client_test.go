package resproxy

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"pagewell-hq/courier/pkg/providers"
)

func newAdapter(t *testing.T) *Adapter {
	t.Helper()
	a, err := New(providers.Config{
		Name:    "resproxy",
		BaseURL: "proxy.example:22225",
		Token:   "tok123",
		Timeout: 5 * time.Second,
	}, providers.Profile{
		Name:      "resproxy",
		RateLimit: providers.RateLimit{Burst: 10, PerSecond: 10},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return a
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(providers.Config{Name: "resproxy"}, providers.Profile{})
	if err == nil {
		t.Fatal("expected error for missing proxy endpoint")
	}
}

func TestProxyForBuildsSessionCredentials(t *testing.T) {
	a := newAdapter(t)
	defer a.Close()

	req, _ := http.NewRequest(http.MethodGet, "https://example.com", nil)
	req.Header.Set("X-Courier-Proxy-Session", "abc123")
	req.Header.Set("X-Courier-Proxy-Country", "US")

	proxyURL, err := a.proxyFor(req)
	if err != nil {
		t.Fatalf("proxyFor failed: %v", err)
	}

	if proxyURL.Host != "proxy.example:22225" {
		t.Errorf("proxy host = %q", proxyURL.Host)
	}
	user := proxyURL.User.Username()
	if user != "customer-tok123-country-US-session-abc123" {
		t.Errorf("proxy username = %q", user)
	}

	// Internal headers must never leave the process.
	if req.Header.Get("X-Courier-Proxy-Session") != "" || req.Header.Get("X-Courier-Proxy-Country") != "" {
		t.Error("internal routing headers should be stripped")
	}
}

func TestProxyForWithoutCountry(t *testing.T) {
	a := newAdapter(t)
	defer a.Close()

	req, _ := http.NewRequest(http.MethodGet, "https://example.com", nil)
	req.Header.Set("X-Courier-Proxy-Session", "abc123")

	proxyURL, err := a.proxyFor(req)
	if err != nil {
		t.Fatalf("proxyFor failed: %v", err)
	}
	user := proxyURL.User.Username()
	if strings.Contains(user, "country") {
		t.Errorf("username %q should not carry a country segment", user)
	}
	if !strings.HasSuffix(user, "-session-abc123") {
		t.Errorf("username %q should end with the session segment", user)
	}
}

func TestSessionIDStablePerRequest(t *testing.T) {
	first := sessionID("req-1")
	second := sessionID("req-1")
	other := sessionID("req-2")

	if first != second {
		t.Error("session id must be stable for one request id")
	}
	if first == other {
		t.Error("different requests should get different sessions")
	}
	if len(first) != 12 {
		t.Errorf("session id length = %d, want 12 hex chars", len(first))
	}
	if _, err := url.Parse("http://u-" + first + "@host"); err != nil {
		t.Errorf("session id must be URL-safe: %v", err)
	}
}
