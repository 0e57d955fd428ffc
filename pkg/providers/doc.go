// Package providers defines the adapter contract every external fetch
// provider is wrapped in, plus the shared HTTP base adapter and the
// classified error taxonomy.
//
// An Adapter normalizes one provider's invocation shape (direct HTTP,
// async actor run, proxy-routed request) into a single Fetch call and
// maps provider-specific failures into the taxonomy consumed by the
// orchestration engine: transient, rate-limited, permanent, and
// capability-mismatch.
//
// Concrete adapters live in subpackages:
//
//   - actorrun: asynchronous job submit + poll + dataset retrieval
//   - unlocker: single synchronous HTTP call with render/geo options
//   - resproxy: requests routed through a provider-operated proxy with
//     optional session affinity
package providers
