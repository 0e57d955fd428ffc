package unlocker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pagewell-hq/courier/pkg/fetch"
	"pagewell-hq/courier/pkg/providers"
)

func newAdapter(t *testing.T, baseURL string) *Adapter {
	t.Helper()
	a, err := New(providers.Config{
		Name:    "unlocker",
		BaseURL: baseURL,
		Token:   "secret",
		Timeout: 5 * time.Second,
	}, providers.Profile{
		Name:      "unlocker",
		RateLimit: providers.RateLimit{Burst: 100, PerSecond: 100},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return a
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(providers.Config{Name: "unlocker"}, providers.Profile{})
	if err == nil {
		t.Fatal("expected error for missing base URL")
	}
}

func TestFetchSuccess(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/unblock" {
			t.Errorf("path = %q, want /unblock", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("authorization = %q", auth)
		}
		q := r.URL.Query()
		gotQuery = map[string]string{
			"url":     q.Get("url"),
			"render":  q.Get("render"),
			"country": q.Get("country"),
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>unblocked</html>"))
	}))
	defer srv.Close()

	a := newAdapter(t, srv.URL)
	defer a.Close()

	req := fetch.NewRequest("https://example.com/page", fetch.ClassGenericPage)
	req.Capabilities = []fetch.Capability{fetch.CapJavaScriptRender}
	req.GeoCountry = "DE"

	payload, err := a.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if string(payload.Body) != "<html>unblocked</html>" {
		t.Errorf("body = %q", payload.Body)
	}
	if payload.ContentType != "text/html" {
		t.Errorf("content type = %q", payload.ContentType)
	}
	if payload.StatusCode != http.StatusOK {
		t.Errorf("status = %d", payload.StatusCode)
	}
	if gotQuery["url"] != "https://example.com/page" {
		t.Errorf("url param = %q", gotQuery["url"])
	}
	if gotQuery["render"] != "true" {
		t.Errorf("render param = %q, want true", gotQuery["render"])
	}
	if gotQuery["country"] != "DE" {
		t.Errorf("country param = %q, want DE", gotQuery["country"])
	}
}

func TestFetchOmitsRenderWithoutCapability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("render") != "" {
			t.Error("render param should be absent without the capability")
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	a := newAdapter(t, srv.URL)
	defer a.Close()

	if _, err := a.Fetch(context.Background(), fetch.NewRequest("https://example.com", fetch.ClassArticle)); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
}

func TestFetchUpstreamRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := newAdapter(t, srv.URL)
	defer a.Close()

	_, err := a.Fetch(context.Background(), fetch.NewRequest("https://example.com", fetch.ClassArticle))
	var rl *providers.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rl.Local {
		t.Error("upstream 429 should not be marked local")
	}
	if rl.RetryAfter != 3*time.Second {
		t.Errorf("RetryAfter = %v, want 3s", rl.RetryAfter)
	}
}

func TestFetchMissingCredential(t *testing.T) {
	a, err := New(providers.Config{Name: "unlocker", BaseURL: "http://unused"}, providers.Profile{
		RateLimit: providers.RateLimit{Burst: 1, PerSecond: 1},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	_, err = a.Fetch(context.Background(), fetch.NewRequest("https://example.com", fetch.ClassArticle))
	var pe *providers.PermanentError
	if !errors.As(err, &pe) {
		t.Fatalf("missing token should fail closed with PermanentError, got %v", err)
	}
}

func TestFetchLocalRateLimit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	a, err := New(providers.Config{
		Name:    "unlocker",
		BaseURL: srv.URL,
		Token:   "secret",
	}, providers.Profile{
		RateLimit: providers.RateLimit{Burst: 1, PerSecond: 0.001},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	if _, err := a.Fetch(context.Background(), fetch.NewRequest("https://example.com", fetch.ClassArticle)); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}

	_, err = a.Fetch(context.Background(), fetch.NewRequest("https://example.com", fetch.ClassArticle))
	var rl *providers.RateLimitError
	if !errors.As(err, &rl) || !rl.Local {
		t.Fatalf("expected local RateLimitError, got %v", err)
	}
	if calls != 1 {
		t.Errorf("provider called %d times, local refusal must not reach the provider", calls)
	}
}
