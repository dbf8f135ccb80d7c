package http

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRateLimiterBudget(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)
	defer rl.stop()
	metrics := &securityMetrics{}

	for i := 0; i < 3; i++ {
		if !rl.allow("203.0.113.7", metrics) {
			t.Fatalf("request %d within budget was denied", i+1)
		}
	}

	before := testutil.ToFloat64(rateLimitedTotal)
	if rl.allow("203.0.113.7", metrics) {
		t.Fatal("request over budget was allowed")
	}
	if got := testutil.ToFloat64(rateLimitedTotal) - before; got != 1 {
		t.Fatalf("rate limited counter delta = %v, want 1", got)
	}
	if hits := atomic.LoadInt64(&metrics.rateLimitHits); hits != 1 {
		t.Fatalf("rateLimitHits = %d, want 1", hits)
	}

	// Budgets are per IP.
	if !rl.allow("203.0.113.8", metrics) {
		t.Fatal("different IP should have its own budget")
	}
}

func TestRateLimiterWindowReplaced(t *testing.T) {
	rl := newRateLimiter(1, 10*time.Millisecond)
	defer rl.stop()

	if !rl.allow("203.0.113.9", nil) {
		t.Fatal("first request denied")
	}
	if rl.allow("203.0.113.9", nil) {
		t.Fatal("second request in same window should be denied")
	}

	time.Sleep(20 * time.Millisecond)
	if !rl.allow("203.0.113.9", nil) {
		t.Fatal("request after window elapsed should start a fresh budget")
	}
}

func TestRateLimiterDropStaleWindows(t *testing.T) {
	rl := newRateLimiter(10, 5*time.Millisecond)
	defer rl.stop()

	rl.allow("203.0.113.10", nil)
	rl.allow("203.0.113.11", nil)

	time.Sleep(15 * time.Millisecond)
	rl.dropStaleWindows()

	rl.mu.Lock()
	n := len(rl.windows)
	rl.mu.Unlock()
	if n != 0 {
		t.Fatalf("stale windows remaining = %d, want 0", n)
	}
}

func TestRateLimiterStopIdempotent(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	rl.stop()
	rl.stop()
}
