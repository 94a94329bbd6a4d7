package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter hands out one token bucket per key.
type Limiter struct {
	mu     sync.Mutex
	m      map[string]*rate.Limiter
	limit  rate.Limit
	burst  int
	maxKey int
}

// New creates a Limiter refilling perSec tokens per second up to burst per key.
func New(perSec float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{m: make(map[string]*rate.Limiter), limit: rate.Limit(perSec), burst: burst, maxKey: 1024}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	b, ok := l.m[key]
	if !ok {
		if len(l.m) >= l.maxKey {
			// keys are bounded by the symbol allow-list in practice
			l.m = make(map[string]*rate.Limiter)
		}
		b = rate.NewLimiter(l.limit, l.burst)
		l.m[key] = b
	}
	l.mu.Unlock()
	return b.Allow()
}
