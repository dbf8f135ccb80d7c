package http

import (
	"sync"
	"sync/atomic"
	"time"
)

// Gift and top-up POSTs are the only writes that open a ledger transaction,
// so the per-IP budget is sized for a human gifter, not a crawler: a retry
// loop gets cut off long before it can queue up contention on one entry.
const (
	postBudget = 30
	postWindow = time.Minute
)

// rateLimiter counts POSTs per client IP over a fixed window. Rejections feed
// both the securityMetrics snapshot and the Prometheus counter.
type rateLimiter struct {
	mu      sync.Mutex
	budget  int
	window  time.Duration
	windows map[string]*ipWindow

	stopJanitor  chan struct{}
	shutdownOnce sync.Once
}

type ipWindow struct {
	openedAt time.Time
	count    int
}

func newRateLimiter(budget int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		budget:      budget,
		window:      window,
		windows:     make(map[string]*ipWindow),
		stopJanitor: make(chan struct{}),
	}
	go rl.janitor()
	return rl
}

// allow records one request from clientIP and reports whether it still fits
// the window's budget. A window that has elapsed is replaced rather than
// refilled, so a burst right at the boundary spans at most two budgets.
func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.windows[clientIP]
	if !ok || now.Sub(w.openedAt) >= rl.window {
		rl.windows[clientIP] = &ipWindow{openedAt: now, count: 1}
		return true
	}

	w.count++
	if w.count > rl.budget {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		rateLimitedTotal.Inc()
		return false
	}
	return true
}

// janitor drops windows whose IPs have gone quiet so the map stays bounded by
// recently active clients.
func (rl *rateLimiter) janitor() {
	ticker := time.NewTicker(5 * rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.dropStaleWindows()
		case <-rl.stopJanitor:
			return
		}
	}
}

func (rl *rateLimiter) dropStaleWindows() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-2 * rl.window)
	for ip, w := range rl.windows {
		if w.openedAt.Before(cutoff) {
			delete(rl.windows, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopJanitor)
	})
}
