// Package journal keeps the durable, append-only record of every
// completed fetch request: the providers tried in order, per-attempt
// outcomes, total latency, and cost units consumed.
//
// Record is the only mutating operation; records are never updated or
// deleted by the write path. Aggregate queries (per-provider success
// rate, fallback frequency, cost accumulation) are read-only projections
// over the stored records. Retention pruning runs on a cron schedule
// and is the only deletion path.
package journal
