package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pagewell-hq/courier/pkg/config"
	"pagewell-hq/courier/pkg/engine"
	"pagewell-hq/courier/pkg/fetch"
	"pagewell-hq/courier/pkg/providers"
	"pagewell-hq/courier/pkg/routing"
)

// stubAdapter serves a fixed payload or error.
type stubAdapter struct {
	name    string
	profile providers.Profile
	payload *fetch.Payload
	err     error
	healthy bool
}

func (a *stubAdapter) Fetch(ctx context.Context, req *fetch.Request) (*fetch.Payload, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.payload, nil
}

func (a *stubAdapter) Name() string               { return a.name }
func (a *stubAdapter) Profile() providers.Profile { return a.profile }
func (a *stubAdapter) Close() error               { return nil }

func (a *stubAdapter) Health() providers.Health {
	return providers.Health{Healthy: a.healthy}
}

func newTestServer(t *testing.T, adapters map[string]providers.Adapter) *Server {
	t.Helper()

	profiles := make(map[string]providers.Profile, len(adapters))
	for name, a := range adapters {
		profiles[name] = a.Profile()
	}
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}

	table, err := routing.NewTable([]routing.Rule{
		{Kind: routing.KindWildcard, Providers: names},
	}, profiles)
	if err != nil {
		t.Fatalf("failed to build routing table: %v", err)
	}

	eng := engine.New(routing.NewRouter(table), nil, adapters, nil, nil, engine.Config{})
	cfg := config.ServerConfig{ListenAddress: "127.0.0.1:0"}
	return New(cfg, eng, adapters, nil, "")
}

func postFetch(t *testing.T, srv *Server, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/fetch", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleFetchSuccess(t *testing.T) {
	adapter := &stubAdapter{
		name:    "alpha",
		profile: providers.Profile{Name: "alpha", CostUnits: 2},
		payload: &fetch.Payload{Body: []byte("<html>hi</html>"), ContentType: "text/html", StatusCode: 200},
		healthy: true,
	}
	srv := newTestServer(t, map[string]providers.Adapter{"alpha": adapter})

	rec := postFetch(t, srv, fetchRequest{Target: "https://example.com", Class: "article"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp fetchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Outcome != fetch.OutcomeSuccess {
		t.Errorf("outcome = %q, want success", resp.Outcome)
	}
	if resp.Provider != "alpha" {
		t.Errorf("provider = %q, want alpha", resp.Provider)
	}
	if resp.Payload == nil || string(resp.Payload.Body) != "<html>hi</html>" {
		t.Errorf("payload missing or wrong: %+v", resp.Payload)
	}
	if resp.CostUnits != 2 {
		t.Errorf("cost units = %v, want 2", resp.CostUnits)
	}
	if len(resp.Attempts) != 1 {
		t.Errorf("attempts = %d, want 1", len(resp.Attempts))
	}
}

func TestHandleFetchMissingTarget(t *testing.T) {
	srv := newTestServer(t, map[string]providers.Adapter{
		"alpha": &stubAdapter{name: "alpha", healthy: true},
	})

	rec := postFetch(t, srv, fetchRequest{Class: "article"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleFetchInvalidTimeout(t *testing.T) {
	srv := newTestServer(t, map[string]providers.Adapter{
		"alpha": &stubAdapter{name: "alpha", healthy: true},
	})

	rec := postFetch(t, srv, fetchRequest{Target: "https://example.com", Timeout: "soon"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleFetchExhausted(t *testing.T) {
	adapter := &stubAdapter{
		name:    "alpha",
		profile: providers.Profile{Name: "alpha"},
		err:     &providers.PermanentError{Provider: "alpha", Message: "blocked"},
	}
	srv := newTestServer(t, map[string]providers.Adapter{"alpha": adapter})

	rec := postFetch(t, srv, fetchRequest{Target: "https://example.com"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502: %s", rec.Code, rec.Body.String())
	}

	var resp fetchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Outcome != fetch.OutcomeExhausted {
		t.Errorf("outcome = %q, want exhausted", resp.Outcome)
	}
	if resp.Error == "" {
		t.Error("error detail should be populated")
	}
}

func TestHandleFetchCapabilityMismatch(t *testing.T) {
	adapter := &stubAdapter{name: "alpha", profile: providers.Profile{Name: "alpha"}}
	srv := newTestServer(t, map[string]providers.Adapter{"alpha": adapter})

	rec := postFetch(t, srv, fetchRequest{
		Target:       "https://example.com",
		Capabilities: []string{"javascript-render"},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestHandleFetchRejectsGet(t *testing.T) {
	srv := newTestServer(t, map[string]providers.Adapter{
		"alpha": &stubAdapter{name: "alpha"},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/fetch", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, map[string]providers.Adapter{
		"alpha": &stubAdapter{name: "alpha", healthy: true},
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHandleProviderHealth(t *testing.T) {
	srv := newTestServer(t, map[string]providers.Adapter{
		"alpha": &stubAdapter{name: "alpha", healthy: true},
		"bravo": &stubAdapter{name: "bravo", healthy: false},
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz/providers", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 while one provider is healthy", rec.Code)
	}

	var report map[string]providerHealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	if !report["alpha"].Healthy || report["bravo"].Healthy {
		t.Errorf("unexpected health report: %+v", report)
	}
}

func TestHandleProviderHealthAllDown(t *testing.T) {
	srv := newTestServer(t, map[string]providers.Adapter{
		"alpha": &stubAdapter{name: "alpha", healthy: false},
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz/providers", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 when every provider is down", rec.Code)
	}
}

func TestStatusForOutcome(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{engine.ErrCapabilityMismatch, http.StatusUnprocessableEntity},
		{engine.ErrExhausted, http.StatusBadGateway},
		{engine.ErrTimeout, http.StatusGatewayTimeout},
		{engine.ErrCancelled, 499},
		{errors.New("other"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		if got := statusForOutcome(tc.err); got != tc.want {
			t.Errorf("statusForOutcome(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
