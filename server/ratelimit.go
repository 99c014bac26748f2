package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const rateLimiterExpiry = 5 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter keeps one token bucket per client address. Idle buckets are
// dropped after rateLimiterExpiry.
type clientLimiter struct {
	mu          sync.Mutex
	rate        rate.Limit
	burst       int
	visitors    map[string]*visitor
	lastCleanup time.Time
	now         func() time.Time
}

func newClientLimiter(ratePerSecond float64, burst int) *clientLimiter {
	return &clientLimiter{
		rate:        rate.Limit(ratePerSecond),
		burst:       burst,
		visitors:    make(map[string]*visitor),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

func (limiter *clientLimiter) Allow(r *http.Request) bool {
	now := limiter.now()
	id := clientID(r)

	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	if now.Sub(limiter.lastCleanup) > rateLimiterExpiry {
		for key, v := range limiter.visitors {
			if now.Sub(v.lastSeen) > rateLimiterExpiry {
				delete(limiter.visitors, key)
			}
		}
		limiter.lastCleanup = now
	}

	v, ok := limiter.visitors[id]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(limiter.rate, limiter.burst)}
		limiter.visitors[id] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// clientID is the address set by middleware.RealIP, without a port.
func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
