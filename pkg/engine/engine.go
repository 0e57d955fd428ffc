package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"pagewell-hq/courier/pkg/cache"
	"pagewell-hq/courier/pkg/fetch"
	"pagewell-hq/courier/pkg/journal"
	"pagewell-hq/courier/pkg/providers"
	"pagewell-hq/courier/pkg/routing"
	"pagewell-hq/courier/pkg/telemetry/metrics"
)

// Config holds the engine's tunable parameters. All of them are
// configuration, not contracts: deployments adjust them per provider
// mix.
type Config struct {
	// AttemptsPerProvider bounds invocations of one provider within one
	// request, first try included. Default: 2.
	AttemptsPerProvider int

	// BackoffBase is the delay before the first retry; each further
	// retry doubles it. Default: 200ms.
	BackoffBase time.Duration

	// BackoffCap caps the retry delay. Default: 5s.
	BackoffCap time.Duration

	// DefaultTimeout applies when a request carries no timeout.
	// Default: 60s.
	DefaultTimeout time.Duration
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.AttemptsPerProvider <= 0 {
		c.AttemptsPerProvider = 2
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 200 * time.Millisecond
	}
	if c.BackoffCap <= 0 {
		c.BackoffCap = 5 * time.Second
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = 60 * time.Second
	}
	return c
}

// Engine orchestrates fetch requests. All collaborators are injected at
// construction; the engine holds no hidden global state, which keeps it
// testable with fake adapters.
type Engine struct {
	router   *routing.Router
	cache    *cache.Cache
	adapters map[string]providers.Adapter
	recorder *journal.Recorder
	metrics  *metrics.Collector
	config   Config
	logger   *slog.Logger
}

// New creates an engine. cache, recorder, and metrics may be nil, in
// which case the corresponding step is skipped; router and adapters are
// required.
func New(router *routing.Router, cacheLayer *cache.Cache, adapters map[string]providers.Adapter,
	recorder *journal.Recorder, collector *metrics.Collector, cfg Config) *Engine {
	return &Engine{
		router:   router,
		cache:    cacheLayer,
		adapters: adapters,
		recorder: recorder,
		metrics:  collector,
		config:   cfg.withDefaults(),
		logger:   slog.Default().With("component", "engine"),
	}
}

// Execute runs one request through the state machine. The returned
// Result is never nil and always carries the full attempt history; err
// is nil on success and one of the package's request-level errors
// otherwise.
func (e *Engine) Execute(ctx context.Context, req *fetch.Request) (*fetch.Result, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = e.config.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := &fetch.Result{
		RequestID: req.ID,
		Target:    req.Target,
		Class:     req.Class,
		StartedAt: time.Now(),
	}

	err := e.run(ctx, req, result)
	result.EndedAt = time.Now()

	e.finish(result)
	return result, err
}

// run executes CheckCache through Done, mutating result in place.
func (e *Engine) run(ctx context.Context, req *fetch.Request, result *fetch.Result) error {
	// CheckCache
	if e.cache != nil && !req.BypassCache {
		entry, err := e.cache.Get(ctx, req.Target, req.Class)
		if err != nil {
			e.logger.Warn("cache read failed, treating as miss",
				"request_id", req.ID, "error", err)
		}
		if entry != nil {
			payload := entry.Payload
			result.Outcome = fetch.OutcomeSuccess
			result.Payload = &payload
			result.FromCache = true
			return nil
		}
	}

	// Resolve
	providersInOrder := e.router.Resolve(req)
	if len(providersInOrder) == 0 {
		result.Outcome = fetch.OutcomeCapabilityMismatch
		return ErrCapabilityMismatch
	}

	// Attempt
	for _, name := range providersInOrder {
		adapter, ok := e.adapters[name]
		if !ok {
			// Routing validated rule providers at load time, so a
			// missing adapter is a wiring bug; skip it loudly.
			e.logger.Error("resolved provider has no adapter", "provider", name)
			continue
		}

		payload, terminal := e.attemptProvider(ctx, req, adapter, result)
		if terminal != nil {
			result.Outcome = outcomeForCtx(terminal)
			return terminal
		}
		if payload != nil {
			// WriteCache
			if e.cache != nil {
				if err := e.cache.Put(ctx, req.Target, req.Class, payload); err != nil {
					e.logger.Warn("cache write failed",
						"request_id", req.ID, "error", err)
				}
			}
			result.Outcome = fetch.OutcomeSuccess
			result.Payload = payload
			result.Provider = adapter.Name()
			return nil
		}
		// Fall through to the next provider.
	}

	result.Outcome = fetch.OutcomeExhausted
	return ErrExhausted
}

// attemptProvider invokes one provider with bounded retries. It returns
// (payload, nil) on success, (nil, nil) when the engine should advance
// to the next provider, and (nil, err) when the whole request is over
// (deadline or cancellation).
func (e *Engine) attemptProvider(ctx context.Context, req *fetch.Request, adapter providers.Adapter, result *fetch.Result) (*fetch.Payload, error) {
	name := adapter.Name()
	cost := adapter.Profile().CostUnits

	for tryNum := 1; tryNum <= e.config.AttemptsPerProvider; tryNum++ {
		if ctx.Err() != nil {
			return nil, ctxError(ctx)
		}

		if tryNum > 1 {
			if err := e.backoff(ctx, tryNum-1); err != nil {
				return nil, err
			}
		}

		attempt := fetch.Attempt{
			Provider:  name,
			StartedAt: time.Now(),
		}

		payload, err := adapter.Fetch(ctx, req)
		attempt.EndedAt = time.Now()
		attempt.Outcome = providers.Classify(err)
		if err != nil {
			attempt.Err = err.Error()
		}
		result.Attempts = append(result.Attempts, attempt)
		result.CostUnits += attemptCost(cost, err)

		switch attempt.Outcome {
		case fetch.AttemptSuccess:
			return payload, nil

		case fetch.AttemptTransient:
			e.logger.Debug("transient provider failure",
				"request_id", req.ID, "provider", name, "try", tryNum, "error", err)
			// Retry the same provider, bounded.

		case fetch.AttemptRateLimited, fetch.AttemptPermanent:
			e.logger.Debug("advancing to next provider",
				"request_id", req.ID, "provider", name, "outcome", attempt.Outcome)
			return nil, nil

		case fetch.AttemptCapabilityMismatch:
			// Routing should have filtered this provider out; treat as
			// a configuration bug, never retry.
			e.logger.Warn("capability mismatch past routing filter",
				"request_id", req.ID, "provider", name, "error", err)
			return nil, nil

		case fetch.AttemptAbandoned:
			return nil, ctxError(ctx)
		}
	}

	// Retries exhausted on transient failures; fall back.
	return nil, nil
}

// backoff sleeps the exponential delay for the given retry number,
// respecting cancellation.
func (e *Engine) backoff(ctx context.Context, retry int) error {
	delay := e.config.BackoffBase << (retry - 1)
	if delay > e.config.BackoffCap {
		delay = e.config.BackoffCap
	}
	select {
	case <-ctx.Done():
		return ctxError(ctx)
	case <-time.After(delay):
		return nil
	}
}

// finish emits the result to the journal and metrics. Nothing in the
// engine swallows an outcome without recording it.
func (e *Engine) finish(result *fetch.Result) {
	if e.metrics != nil {
		e.metrics.ObserveResult(result)
	}
	if e.recorder != nil {
		e.recorder.Record(context.Background(), result)
	}

	e.logger.Info("fetch completed",
		"request_id", result.RequestID,
		"outcome", result.Outcome,
		"provider", result.Provider,
		"from_cache", result.FromCache,
		"attempts", len(result.Attempts),
		"duration_ms", result.Duration().Milliseconds(),
	)
}

// attemptCost returns the cost consumed by one invocation. Locally
// refused rate limits and abandoned calls never reached the provider
// and cost nothing.
func attemptCost(cost float64, err error) float64 {
	if err == nil {
		return cost
	}
	var rl *providers.RateLimitError
	if errors.As(err, &rl) && rl.Local {
		return 0
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0
	}
	return cost
}

// ctxError maps a done context onto the request-level error.
func ctxError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ErrCancelled
}

// outcomeForCtx maps the terminal context error onto the result outcome.
func outcomeForCtx(err error) fetch.Outcome {
	if errors.Is(err, ErrTimeout) {
		return fetch.OutcomeTimeout
	}
	return fetch.OutcomeCancelled
}
