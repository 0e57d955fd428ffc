package providers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"pagewell-hq/courier/pkg/ratelimit"
)

// unhealthyThreshold is the consecutive-failure count at which an
// adapter reports itself unhealthy.
const unhealthyThreshold = 3

// HTTPAdapter is the base implementation shared by HTTP-backed provider
// adapters. It provides connection pooling, per-call timeout capping,
// local rate-limit gating, status-code classification, and health
// tracking.
//
// Concrete adapters (actorrun, unlocker, resproxy) embed this struct and
// implement the Adapter interface's Fetch method on top of Do.
type HTTPAdapter struct {
	config  Config
	profile Profile
	client  *http.Client

	// bucket is the shared token bucket for this provider, consulted
	// before every outbound call.
	bucket *ratelimit.TokenBucket

	health   Health
	healthMu sync.RWMutex
}

// NewHTTPAdapter creates the base adapter with a pooled HTTP transport
// and a token bucket sized from the profile's declared rate limit.
func NewHTTPAdapter(cfg Config, profile Profile) *HTTPAdapter {
	transport := &http.Transport{
		MaxIdleConns:      cfg.MaxIdleConns,
		IdleConnTimeout:   cfg.IdleConnTimeout,
		ForceAttemptHTTP2: true,
	}

	burst := profile.RateLimit.Burst
	if burst <= 0 {
		burst = 1
	}

	return &HTTPAdapter{
		config:  cfg,
		profile: profile,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		bucket: ratelimit.NewTokenBucket(burst, profile.RateLimit.PerSecond),
		health: Health{
			Healthy:     true, // start optimistic
			LastSuccess: time.Now(),
		},
	}
}

// Name returns the provider identifier.
func (a *HTTPAdapter) Name() string {
	return a.config.Name
}

// Profile returns the provider's static descriptor.
func (a *HTTPAdapter) Profile() Profile {
	return a.profile
}

// Config returns the adapter's configuration.
func (a *HTTPAdapter) Config() Config {
	return a.config
}

// Health returns a snapshot of the adapter's health tracking.
func (a *HTTPAdapter) Health() Health {
	a.healthMu.RLock()
	defer a.healthMu.RUnlock()
	return a.health
}

// SetTransport swaps the underlying transport. Used by adapters that
// route calls through a provider-operated proxy.
func (a *HTTPAdapter) SetTransport(rt http.RoundTripper) {
	a.client.Transport = rt
}

// Close releases idle connections.
func (a *HTTPAdapter) Close() error {
	a.client.CloseIdleConnections()
	slog.Debug("adapter closed", "provider", a.config.Name)
	return nil
}

// Reserve takes one token from the provider's bucket. It returns a
// *RateLimitError with Local set when the bucket is empty, so callers
// refuse the invocation without spending upstream quota.
func (a *HTTPAdapter) Reserve() error {
	if a.bucket.Take() {
		return nil
	}
	return &RateLimitError{
		Provider:   a.config.Name,
		RetryAfter: a.bucket.RetryAfter(),
		Local:      true,
	}
}

// Unreserve returns a reserved token. Called when an invocation was
// abandoned (cancellation, overall deadline) before reaching the
// provider, per the cancellation contract.
func (a *HTTPAdapter) Unreserve() {
	a.bucket.Return()
}

// CheckCredential returns a permanent error when the provider credential
// is absent. Adapters fail closed rather than attempting an
// unauthenticated call.
func (a *HTTPAdapter) CheckCredential() error {
	if a.config.Token == "" {
		return &PermanentError{
			Provider: a.config.Name,
			Message:  "credential not configured",
		}
	}
	return nil
}

// Do performs one HTTP call and maps the response status into the
// classified error taxonomy. On 2xx it returns the response with the
// body still open; the caller owns closing it. All non-2xx responses are
// drained, closed, and converted to errors:
//
//	401/403        -> PermanentError (credential rejected)
//	404/410        -> PermanentError (target gone)
//	429            -> RateLimitError with upstream Retry-After
//	4xx other      -> PermanentError
//	5xx, network   -> TransientError
func (a *HTTPAdapter) Do(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, &PermanentError{Provider: a.config.Name, Message: fmt.Sprintf("build request: %v", err)}
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("Content-Type") == "" && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	slog.Debug("sending provider request",
		"provider", a.config.Name,
		"method", method,
	)

	resp, err := a.client.Do(req)
	if err != nil {
		a.record(false, err)
		if ctx.Err() != nil {
			// Surface the context error unchanged so Classify sees
			// cancellation rather than a transport failure.
			return nil, ctx.Err()
		}
		return nil, &TransientError{Provider: a.config.Name, Message: "request failed", Cause: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		a.record(true, nil)
		return resp, nil
	}

	errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		err = &PermanentError{Provider: a.config.Name, StatusCode: resp.StatusCode, Message: "credential rejected"}
	case resp.StatusCode == http.StatusTooManyRequests:
		err = &RateLimitError{Provider: a.config.Name, RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode >= 500:
		err = &TransientError{Provider: a.config.Name, Message: fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(errBody, 200))}
	default:
		err = &PermanentError{Provider: a.config.Name, StatusCode: resp.StatusCode, Message: truncate(errBody, 200)}
	}

	a.record(false, err)
	return nil, err
}

// record updates request counters and the consecutive-failure circuit.
func (a *HTTPAdapter) record(success bool, err error) {
	a.healthMu.Lock()
	defer a.healthMu.Unlock()

	a.health.TotalRequests++
	if success {
		a.health.Healthy = true
		a.health.ConsecutiveFailures = 0
		a.health.LastError = nil
		a.health.LastSuccess = time.Now()
		return
	}

	a.health.FailedRequests++
	a.health.ConsecutiveFailures++
	a.health.LastError = err

	if a.health.ConsecutiveFailures >= unhealthyThreshold && a.health.Healthy {
		a.health.Healthy = false
		slog.Warn("provider marked unhealthy",
			"provider", a.config.Name,
			"consecutive_failures", a.health.ConsecutiveFailures,
			"error", err,
		)
	}
}

// parseRetryAfter parses the Retry-After header value, supporting both
// delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
