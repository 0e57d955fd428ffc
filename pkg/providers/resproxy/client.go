// Package resproxy implements the adapter for the residential-proxy
// provider: the target is fetched directly, with the call routed through
// the provider-operated proxy endpoint. Session affinity is preserved by
// deriving a stable session identifier from the fetch request ID and
// embedding it in the proxy credentials, so retries within one request
// exit from the same residential IP.
package resproxy

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"pagewell-hq/courier/pkg/fetch"
	"pagewell-hq/courier/pkg/providers"
)

// sessionHeader carries the session id from Fetch to the transport's
// Proxy callback. It is stripped before the request leaves the process.
const sessionHeader = "X-Courier-Proxy-Session"

// countryHeader carries the geo-targeting country the same way.
const countryHeader = "X-Courier-Proxy-Country"

// Adapter is the residential-proxy provider adapter.
type Adapter struct {
	*providers.HTTPAdapter

	proxyHost string
	token     string
}

// New creates the resproxy adapter. cfg.BaseURL is the proxy endpoint
// (host:port); the credential is embedded in the per-session proxy URL.
func New(cfg providers.Config, profile providers.Profile) (*Adapter, error) {
	if cfg.Name == "" {
		cfg.Name = "resproxy"
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("provider %q: base_url (proxy endpoint) is required", cfg.Name)
	}

	a := &Adapter{
		HTTPAdapter: providers.NewHTTPAdapter(cfg, profile),
		proxyHost:   cfg.BaseURL,
		token:       cfg.Token,
	}

	// One pooled transport for all sessions: the proxy URL varies by
	// session credentials, and the transport caches connections per
	// proxy URL, which is exactly per-session affinity.
	a.SetTransport(&http.Transport{
		Proxy:             a.proxyFor,
		MaxIdleConns:      cfg.MaxIdleConns,
		IdleConnTimeout:   cfg.IdleConnTimeout,
		ForceAttemptHTTP2: false, // proxy CONNECT path, keep HTTP/1.1
	})

	slog.Info("residential proxy provider initialized",
		"provider", cfg.Name,
		"endpoint", cfg.BaseURL,
	)
	return a, nil
}

// Fetch retrieves the target through the provider's proxy. The session
// id is derived from the request ID, so the engine's retries within the
// same request reuse the same session.
func (a *Adapter) Fetch(ctx context.Context, req *fetch.Request) (*fetch.Payload, error) {
	if err := a.CheckCredential(); err != nil {
		return nil, err
	}
	if err := a.Reserve(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		a.Unreserve()
		return nil, ctx.Err()
	}

	headers := map[string]string{
		sessionHeader: sessionID(req.ID),
	}
	if req.GeoCountry != "" {
		headers[countryHeader] = req.GeoCountry
	}

	resp, err := a.Do(ctx, http.MethodGet, req.Target, nil, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &providers.TransientError{Provider: a.Name(), Message: "read response body", Cause: err}
	}

	return &fetch.Payload{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}, nil
}

// proxyFor builds the authenticated proxy URL for the request's session.
// Called by the transport for every outbound request.
func (a *Adapter) proxyFor(req *http.Request) (*url.URL, error) {
	session := req.Header.Get(sessionHeader)
	country := req.Header.Get(countryHeader)
	req.Header.Del(sessionHeader)
	req.Header.Del(countryHeader)

	username := "customer-" + a.token
	if country != "" {
		username += "-country-" + country
	}
	if session != "" {
		username += "-session-" + session
	}

	return &url.URL{
		Scheme: "http",
		Host:   a.proxyHost,
		User:   url.User(username),
	}, nil
}

// sessionID derives a short stable session identifier from a request ID.
func sessionID(requestID string) string {
	sum := sha256.Sum256([]byte(requestID))
	return hex.EncodeToString(sum[:6])
}
