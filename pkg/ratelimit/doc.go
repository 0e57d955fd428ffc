// Package ratelimit implements the shared per-provider token bucket
// consulted by every adapter invocation. The bucket is the one piece of
// genuinely shared mutable state between concurrent requests for the
// same provider; all operations are guarded by a mutex so two concurrent
// requests can never jointly exceed the provider's declared limit.
package ratelimit
