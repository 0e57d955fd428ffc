// Package fetch defines the core value types shared by the Courier
// orchestration layer: requests, attempts, results, and the outcome
// taxonomy used to classify provider failures.
//
// Types in this package are plain values with no behavior beyond
// construction helpers. Components (routing, cache, engine, journal)
// all depend on this package; it depends on nothing but the standard
// library.
package fetch
