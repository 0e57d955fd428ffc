// Package unlocker implements the adapter for the direct HTTP provider:
// one synchronous API call per fetch, with rendering and geo options
// passed as query parameters. Non-2xx responses map straight onto the
// classified error taxonomy via the base adapter.
package unlocker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"pagewell-hq/courier/pkg/fetch"
	"pagewell-hq/courier/pkg/providers"
)

// Adapter is the direct HTTP provider adapter.
type Adapter struct {
	*providers.HTTPAdapter
}

// New creates the unlocker adapter.
func New(cfg providers.Config, profile providers.Profile) (*Adapter, error) {
	if cfg.Name == "" {
		cfg.Name = "unlocker"
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("provider %q: base_url is required", cfg.Name)
	}

	a := &Adapter{
		HTTPAdapter: providers.NewHTTPAdapter(cfg, profile),
	}

	slog.Info("unlocker provider initialized", "provider", cfg.Name)
	return a, nil
}

// Fetch issues a single API call for the target. Rendering and geo
// targeting are requested through query parameters when the request
// demands those capabilities.
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

	q := url.Values{}
	q.Set("url", req.Target)
	if req.Requires(fetch.CapJavaScriptRender) {
		q.Set("render", "true")
	}
	if req.GeoCountry != "" {
		q.Set("country", req.GeoCountry)
	}

	endpoint := fmt.Sprintf("%s/unblock?%s", a.Config().BaseURL, q.Encode())
	headers := map[string]string{
		"Authorization": "Bearer " + a.Config().Token,
	}

	resp, err := a.Do(ctx, http.MethodGet, endpoint, nil, headers)
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
