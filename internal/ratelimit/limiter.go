package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	visitorTTL      = 5 * time.Minute
	cleanupInterval = 3 * time.Minute
)

// Limiter is a per-IP token bucket rate limiter for the public webhook and
// login endpoints. It tracks each caller by IP and drops entries that have
// been idle for visitorTTL.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiter creates a per-IP limiter allowing rps requests per second with
// the given burst, and starts the background cleanup loop.
func NewLimiter(rps float64, burst int) *Limiter {
	l := &Limiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
	go l.cleanup()
	return l
}

// Allow reports whether a request from the given IP should be permitted.
func (l *Limiter) Allow(ip string) bool {
	l.mu.Lock()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	l.mu.Unlock()

	return v.limiter.Allow()
}

func (l *Limiter) cleanup() {
	for {
		time.Sleep(cleanupInterval)

		l.mu.Lock()
		for ip, v := range l.visitors {
			if time.Since(v.lastSeen) >= visitorTTL {
				delete(l.visitors, ip)
			}
		}
		l.mu.Unlock()
	}
}
