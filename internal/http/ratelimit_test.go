package http

import (
	"testing"
	"time"
)

func TestRateLimiter_BudgetPerWindow(t *testing.T) {
	rl := newRateLimiter(3)
	defer rl.stop()
	metrics := &securityMetrics{}

	for i := 0; i < 3; i++ {
		if !rl.allow("198.51.100.1", metrics) {
			t.Fatalf("request %d should fit the budget", i+1)
		}
	}
	if rl.allow("198.51.100.1", metrics) {
		t.Fatalf("request over budget must be rejected")
	}
	if metrics.rateLimitHits != 1 {
		t.Fatalf("rate limit hits = %d, want 1", metrics.rateLimitHits)
	}

	// Other clients keep their own budget.
	if !rl.allow("198.51.100.2", metrics) {
		t.Fatalf("different IP must not share the budget")
	}
}

func TestRateLimiter_WindowResets(t *testing.T) {
	rl := newRateLimiter(1)
	defer rl.stop()

	if !rl.allow("198.51.100.1", nil) {
		t.Fatalf("first request must pass")
	}
	if rl.allow("198.51.100.1", nil) {
		t.Fatalf("second request in the same window must fail")
	}

	// Age the client past the window; the next request starts a fresh one.
	rl.mu.Lock()
	rl.clients["198.51.100.1"].lastRequest = time.Now().Add(-2 * rateLimitWindow)
	rl.mu.Unlock()

	if !rl.allow("198.51.100.1", nil) {
		t.Fatalf("request after the window must pass again")
	}
}
