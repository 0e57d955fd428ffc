// Package config defines Courier's configuration structure and loading.
//
// Configuration is loaded from a YAML file, filled with defaults,
// overridden by COURIER_* environment variables, and validated. The
// package depends only on the standard library and the YAML codec, so
// every other package can consume it without cycles.
//
// Routing rules and provider profiles are hot-reloadable: Watch
// re-reads the file on change and hands the new configuration to a
// callback, which swaps the routing table atomically.
package config
