// Package actorrun implements the adapter for the actor-style provider:
// fetches are submitted as asynchronous actor jobs, polled to
// completion, and the result is retrieved from the run's dataset. The
// asynchrony is hidden behind a single Fetch call bounded by the
// context deadline.
package actorrun

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"pagewell-hq/courier/pkg/fetch"
	"pagewell-hq/courier/pkg/providers"
)

// DefaultPollInterval is used when the config does not set one.
const DefaultPollInterval = 2 * time.Second

// Run statuses reported by the provider.
const (
	statusSucceeded = "SUCCEEDED"
	statusFailed    = "FAILED"
	statusAborted   = "ABORTED"
	statusTimedOut  = "TIMED-OUT"
)

// Adapter is the actor-run provider adapter.
type Adapter struct {
	*providers.HTTPAdapter

	pollInterval time.Duration
}

// runResponse is the provider's job submission / status payload.
type runResponse struct {
	Data struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		DefaultDatasetID string `json:"defaultDatasetId"`
	} `json:"data"`
}

// New creates the actor-run adapter.
func New(cfg providers.Config, profile providers.Profile) (*Adapter, error) {
	if cfg.Name == "" {
		cfg.Name = "actorrun"
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("provider %q: base_url is required", cfg.Name)
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	a := &Adapter{
		HTTPAdapter:  providers.NewHTTPAdapter(cfg, profile),
		pollInterval: interval,
	}

	slog.Info("actor-run provider initialized",
		"provider", cfg.Name,
		"poll_interval", interval,
	)
	return a, nil
}

// Fetch submits an actor job for the target, polls until the run
// finishes, and retrieves the first dataset item. The whole sequence is
// bounded by ctx; if the deadline expires mid-poll the context error is
// returned and the engine records the attempt as abandoned.
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

	run, err := a.submit(ctx, req)
	if err != nil {
		return nil, err
	}

	datasetID, err := a.awaitRun(ctx, run)
	if err != nil {
		return nil, err
	}

	return a.datasetItem(ctx, datasetID)
}

// submit starts an actor run for the target.
func (a *Adapter) submit(ctx context.Context, req *fetch.Request) (*runResponse, error) {
	input := map[string]interface{}{
		"startUrls":      []map[string]string{{"url": req.Target}},
		"renderJs":       req.Requires(fetch.CapJavaScriptRender),
		"contentClass":   string(req.Class),
		"maxPagesPerRun": 1,
		"proxyCountry":   req.GeoCountry,
	}
	body, err := json.Marshal(input)
	if err != nil {
		return nil, &providers.PermanentError{Provider: a.Name(), Message: fmt.Sprintf("encode input: %v", err)}
	}

	resp, err := a.Do(ctx, http.MethodPost, fmt.Sprintf("%s/v2/acts/page-fetcher/runs", a.baseURL()), body, a.authHeaders())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var run runResponse
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		return nil, &providers.TransientError{Provider: a.Name(), Message: "decode run response", Cause: err}
	}
	if run.Data.ID == "" {
		return nil, &providers.TransientError{Provider: a.Name(), Message: "run response missing id"}
	}
	return &run, nil
}

// awaitRun polls the run until it reaches a terminal status and returns
// the dataset id holding the result.
func (a *Adapter) awaitRun(ctx context.Context, run *runResponse) (string, error) {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		resp, err := a.Do(ctx, http.MethodGet, fmt.Sprintf("%s/v2/actor-runs/%s", a.baseURL(), run.Data.ID), nil, a.authHeaders())
		if err != nil {
			return "", err
		}

		var status runResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&status)
		resp.Body.Close()
		if decodeErr != nil {
			return "", &providers.TransientError{Provider: a.Name(), Message: "decode run status", Cause: decodeErr}
		}

		switch status.Data.Status {
		case statusSucceeded:
			return status.Data.DefaultDatasetID, nil
		case statusFailed, statusAborted:
			return "", &providers.PermanentError{
				Provider: a.Name(),
				Message:  fmt.Sprintf("run %s ended with status %s", run.Data.ID, status.Data.Status),
			}
		case statusTimedOut:
			return "", &providers.TransientError{
				Provider: a.Name(),
				Message:  fmt.Sprintf("run %s timed out on the provider side", run.Data.ID),
			}
		}
		// Still running; keep polling.
	}
}

// datasetItem retrieves the run's result from its dataset.
func (a *Adapter) datasetItem(ctx context.Context, datasetID string) (*fetch.Payload, error) {
	if datasetID == "" {
		return nil, &providers.TransientError{Provider: a.Name(), Message: "run succeeded without a dataset"}
	}

	resp, err := a.Do(ctx, http.MethodGet, fmt.Sprintf("%s/v2/datasets/%s/items?limit=1", a.baseURL(), datasetID), nil, a.authHeaders())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &providers.TransientError{Provider: a.Name(), Message: "read dataset item", Cause: err}
	}

	return &fetch.Payload{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

func (a *Adapter) baseURL() string {
	return a.Config().BaseURL
}

func (a *Adapter) authHeaders() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + a.Config().Token,
	}
}
