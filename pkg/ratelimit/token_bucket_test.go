package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestTokenBucket_Basic(t *testing.T) {
	bucket := NewTokenBucket(5, 10)

	// Should start full
	for i := 0; i < 5; i++ {
		if !bucket.Take() {
			t.Fatalf("expected token %d to be available", i+1)
		}
	}

	// Should be empty now
	if bucket.Take() {
		t.Error("expected bucket to be empty")
	}
}

func TestTokenBucket_Refill(t *testing.T) {
	bucket := NewTokenBucket(10, 10) // 10 tokens/sec

	// Drain
	for i := 0; i < 10; i++ {
		bucket.Take()
	}
	if bucket.Remaining() != 0 {
		t.Fatalf("expected empty bucket, got %d", bucket.Remaining())
	}

	// Wait for refill (150ms = at least 1 token at 10/sec)
	time.Sleep(150 * time.Millisecond)

	if !bucket.Take() {
		t.Error("expected bucket to have refilled")
	}
}

func TestTokenBucket_CapacityLimit(t *testing.T) {
	bucket := NewTokenBucket(3, 100)

	time.Sleep(100 * time.Millisecond)

	if bucket.Remaining() > 3 {
		t.Errorf("bucket exceeded capacity: %d", bucket.Remaining())
	}
}

func TestTokenBucket_Return(t *testing.T) {
	bucket := NewTokenBucket(2, 0.001)

	bucket.Take()
	bucket.Take()
	if bucket.Take() {
		t.Fatal("expected bucket to be empty")
	}

	// Abandoned invocation gives its token back
	bucket.Return()
	if !bucket.Take() {
		t.Error("expected returned token to be available")
	}

	// Return never exceeds capacity
	bucket.Reset()
	bucket.Return()
	if bucket.Remaining() != 2 {
		t.Errorf("expected capacity 2 after over-return, got %d", bucket.Remaining())
	}
}

func TestTokenBucket_RetryAfter(t *testing.T) {
	bucket := NewTokenBucket(1, 10) // 10 tokens/sec

	if bucket.RetryAfter() != 0 {
		t.Error("expected 0 retry-after with token available")
	}

	bucket.Take()
	retry := bucket.RetryAfter()
	if retry <= 0 || retry > 200*time.Millisecond {
		t.Errorf("expected ~100ms retry-after, got %v", retry)
	}
}

func TestTokenBucket_Concurrent(t *testing.T) {
	bucket := NewTokenBucket(50, 1)

	var wg sync.WaitGroup
	var mu sync.Mutex
	taken := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if bucket.Take() {
				mu.Lock()
				taken++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Exactly capacity tokens can be taken; concurrent callers can
	// never jointly exceed the limit.
	if taken != 50 {
		t.Errorf("expected exactly 50 successful takes, got %d", taken)
	}
}
