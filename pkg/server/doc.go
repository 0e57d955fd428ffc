// Package server provides the HTTP service wrapping the fetch engine.
//
// It exposes POST /v1/fetch for fetch requests, GET /healthz for
// liveness, GET /healthz/providers for per-provider health, and mounts
// the Prometheus exposition handler. The server shuts down gracefully
// on SIGINT/SIGTERM or context cancellation.
package server
