package fetch

import (
	"testing"
	"time"
)

func TestNewRequestAssignsID(t *testing.T) {
	a := NewRequest("https://example.com", ClassArticle)
	b := NewRequest("https://example.com", ClassArticle)

	if a.ID == "" {
		t.Fatal("request ID must be assigned")
	}
	if a.ID == b.ID {
		t.Error("request IDs must be unique")
	}
	if a.Target != "https://example.com" || a.Class != ClassArticle {
		t.Errorf("request = %+v", a)
	}
}

func TestRequires(t *testing.T) {
	req := NewRequest("https://example.com", ClassGenericPage)
	req.Capabilities = []Capability{CapJavaScriptRender, CapGeoTargeting}

	if !req.Requires(CapJavaScriptRender) {
		t.Error("should require javascript-render")
	}
	if req.Requires(CapSessionAffinity) {
		t.Error("should not require session-affinity")
	}
}

func TestResultFallbacks(t *testing.T) {
	cases := []struct {
		name      string
		providers []string
		want      int
	}{
		{"no attempts", nil, 0},
		{"single provider", []string{"alpha"}, 0},
		{"retries on one provider", []string{"alpha", "alpha"}, 0},
		{"one fallback", []string{"alpha", "bravo"}, 1},
		{"retry then two fallbacks", []string{"alpha", "alpha", "bravo", "charlie"}, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &Result{}
			for _, p := range tc.providers {
				r.Attempts = append(r.Attempts, Attempt{Provider: p})
			}
			if got := r.Fallbacks(); got != tc.want {
				t.Errorf("Fallbacks() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestDurations(t *testing.T) {
	start := time.Now()
	end := start.Add(750 * time.Millisecond)

	r := &Result{StartedAt: start, EndedAt: end}
	if r.Duration() != 750*time.Millisecond {
		t.Errorf("result duration = %v", r.Duration())
	}

	a := &Attempt{StartedAt: start, EndedAt: start.Add(100 * time.Millisecond)}
	if a.Duration() != 100*time.Millisecond {
		t.Errorf("attempt duration = %v", a.Duration())
	}
}
