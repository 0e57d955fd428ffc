// Package engine drives the cache-check, route, attempt, fallback,
// cache-write sequence for a single fetch request.
//
// Each request runs an independent state machine:
//
//	CheckCache -> Resolve -> Attempt -> WriteCache -> Done
//
// CheckCache returns a cached payload when fresh and not bypassed.
// Resolve produces the ordered provider list; an empty list terminates
// with capability-mismatch before anything is attempted. Attempt works
// through the list in order, retrying the same provider only on
// transient errors (bounded, with exponential backoff) and advancing on
// rate-limited or permanent failures. The request's overall deadline is
// enforced across the whole machine, not per attempt. Every terminal
// state hands the full attempt history to the journal recorder and the
// metrics collector, regardless of outcome.
package engine
