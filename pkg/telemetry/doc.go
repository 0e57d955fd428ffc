// Package telemetry groups Courier's observability concerns: structured
// logging configuration (telemetry/logging) and Prometheus metrics
// (telemetry/metrics).
package telemetry
