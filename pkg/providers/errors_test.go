package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"pagewell-hq/courier/pkg/fetch"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want fetch.AttemptOutcome
	}{
		{"nil", nil, fetch.AttemptSuccess},
		{"cancelled", context.Canceled, fetch.AttemptAbandoned},
		{"deadline", context.DeadlineExceeded, fetch.AttemptAbandoned},
		{"wrapped deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), fetch.AttemptAbandoned},
		{"rate limit", &RateLimitError{Provider: "p"}, fetch.AttemptRateLimited},
		{"local rate limit", &RateLimitError{Provider: "p", Local: true}, fetch.AttemptRateLimited},
		{"permanent", &PermanentError{Provider: "p", StatusCode: 404}, fetch.AttemptPermanent},
		{"capability", &CapabilityError{Provider: "p", Missing: fetch.CapGeoTargeting}, fetch.AttemptCapabilityMismatch},
		{"transient", &TransientError{Provider: "p", Message: "boom"}, fetch.AttemptTransient},
		{"unknown", errors.New("mystery"), fetch.AttemptTransient},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.want {
				t.Errorf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestTransientErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &TransientError{Provider: "p", Message: "request failed", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("TransientError should unwrap to its cause")
	}
}

func TestRateLimitErrorMessage(t *testing.T) {
	err := &RateLimitError{Provider: "p", RetryAfter: 2 * time.Second, Local: true}
	msg := err.Error()
	if msg == "" {
		t.Fatal("empty message")
	}
	local := &RateLimitError{Provider: "p", Local: true}
	upstream := &RateLimitError{Provider: "p"}
	if local.Error() == upstream.Error() {
		t.Error("local and upstream refusals should read differently")
	}
}
