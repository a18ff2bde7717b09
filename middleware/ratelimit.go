package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter hands out one token bucket per client IP.
type RateLimiter struct {
	r     rate.Limit
	b     int
	mu    sync.Mutex
	byIP  map[string]*ipLimiter
	clock func() time.Time
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows r requests per second per IP with burst b.
func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	return &RateLimiter{r: r, b: b, byIP: make(map[string]*ipLimiter), clock: time.Now}
}

// Allow reports whether ip may make a request now.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	il, ok := rl.byIP[ip]
	if !ok {
		il = &ipLimiter{limiter: rate.NewLimiter(rl.r, rl.b)}
		rl.byIP[ip] = il
	}
	il.lastSeen = rl.clock()
	rl.mu.Unlock()
	return il.limiter.Allow()
}

// Sweep forgets IPs not seen for idle. It returns how many were removed.
func (rl *RateLimiter) Sweep(idle time.Duration) int {
	cutoff := rl.clock().Add(-idle)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	n := 0
	for ip, il := range rl.byIP {
		if il.lastSeen.Before(cutoff) {
			delete(rl.byIP, ip)
			n++
		}
	}
	return n
}

// Run sweeps idle IPs every interval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep(idle)
		}
	}
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
