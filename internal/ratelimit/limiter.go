// Package ratelimit implements a process-wide fixed-window request
// limiter keyed by client identity. Entries live only in process memory:
// the limiter is an abuse-mitigation heuristic, not a durable guarantee,
// and losing its state on restart is acceptable.
package ratelimit

import (
	"sync"
	"time"
)

// Fixed policy: each client may make DefaultMaxRequests requests per
// DefaultWindow. The window resets the client's quota; maxRequests is the
// number of requests allowed inside one window.
const (
	DefaultWindow      = time.Minute
	DefaultMaxRequests = 10
)

// entry tracks one client's count within its current window.
type entry struct {
	count       int
	windowReset time.Time
}

// Limiter caps requests per client identity within a fixed time window.
// All methods are safe for concurrent use; the read-check-increment on a
// client key is one critical section.
type Limiter struct {
	mu          sync.Mutex
	entries     map[string]*entry
	window      time.Duration
	maxRequests int

	// now is replaceable in tests.
	now func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// NewLimiter creates a Limiter with the given policy and starts the
// background sweeper that drops expired entries once per window. Call
// Stop to release the sweeper.
func NewLimiter(window time.Duration, maxRequests int) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}

	l := &Limiter{
		entries:     make(map[string]*entry),
		window:      window,
		maxRequests: maxRequests,
		now:         time.Now,
		done:        make(chan struct{}),
	}

	go l.sweepLoop()

	return l
}

// Allow reports whether the client identified by clientID may make a
// request now, counting it if so. A denied call mutates nothing beyond
// what an allowed call at the same instant would.
func (l *Limiter) Allow(clientID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	e, ok := l.entries[clientID]
	if !ok || now.After(e.windowReset) {
		l.entries[clientID] = &entry{count: 1, windowReset: now.Add(l.window)}
		return true
	}

	if e.count >= l.maxRequests {
		return false
	}

	e.count++
	return true
}

// Stop terminates the background sweeper. The limiter remains usable;
// expired entries then self-correct only on their next access.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}

// sweepLoop periodically removes entries whose window has passed. This is
// best-effort housekeeping to bound memory, not correctness-critical:
// Allow resets any stale entry it touches.
func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

// sweep drops all expired entries.
func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for id, e := range l.entries {
		if now.After(e.windowReset) {
			delete(l.entries, id)
		}
	}
}
