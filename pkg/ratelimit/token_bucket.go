package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket implements the token bucket rate limiting algorithm.
//
// The bucket allows bursts up to its capacity while maintaining an
// average rate over time. Tokens are added at a constant refill rate;
// each provider invocation consumes one token. If no token is available
// the invocation is refused locally, before any quota is spent upstream.
//
// An abandoned invocation (caller cancellation, overall deadline) may
// return its token with Return, since the reservation was never
// converted into a completed provider call.
type TokenBucket struct {
	capacity   int64
	tokens     int64
	refillRate float64 // tokens added per second
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a token bucket that starts full.
//
// capacity is the burst size; refillRate is the sustained rate in tokens
// per second.
func NewTokenBucket(capacity int64, refillRate float64) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Take attempts to consume one token. Returns true if a token was
// available and consumed.
func (tb *TokenBucket) Take() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refillLocked()

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// Return gives one token back, up to capacity. Used when a reserved
// invocation was abandoned before reaching the provider.
func (tb *TokenBucket) Return() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if tb.tokens < tb.capacity {
		tb.tokens++
	}
}

// Remaining returns the number of tokens currently available, after
// applying any pending refill.
func (tb *TokenBucket) Remaining() int64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refillLocked()
	return tb.tokens
}

// RetryAfter returns how long until one token will be available.
// Returns 0 if a token is available now.
func (tb *TokenBucket) RetryAfter() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refillLocked()

	if tb.tokens >= 1 {
		return 0
	}
	if tb.refillRate <= 0 {
		return time.Duration(1<<63 - 1)
	}
	return time.Duration(float64(time.Second) / tb.refillRate)
}

// Reset refills the bucket to capacity. Useful in tests and manual
// limit resets.
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = time.Now()
}

// refillLocked adds tokens based on elapsed time since the last refill.
// Caller must hold the lock.
func (tb *TokenBucket) refillLocked() {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)

	tokensToAdd := int64(elapsed.Seconds() * tb.refillRate)
	if tokensToAdd > 0 {
		tb.tokens += tokensToAdd
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.lastRefill = now
	}
}
