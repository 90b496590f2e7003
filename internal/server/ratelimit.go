package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ipLimiter hands out one token bucket per client key.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newIPLimiter allows perMinute events per client with the given burst. A
// zero rate disables limiting.
func newIPLimiter(perMinute float64, burst int) *ipLimiter {
	l := &ipLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Inf,
		burst:    burst,
	}
	if perMinute > 0 {
		l.limit = rate.Limit(perMinute / 60)
	}
	if l.burst <= 0 {
		l.burst = 1
	}
	return l
}

// Allow reports whether key may act now.
func (l *ipLimiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Prune forgets clients idle for longer than maxAge.
func (l *ipLimiter) Prune(now time.Time, maxAge time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, e := range l.limiters {
		if now.Sub(e.lastSeen) > maxAge {
			delete(l.limiters, key)
		}
	}
}
