package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type rateWindow struct {
	count     int
	resetTime time.Time
}

// RateLimiter is a fixed-window counter keyed by client IP. It is the only
// mutable shared state in the defense chain, so all access goes through the
// mutex. Expired windows are purged lazily on each request; there is no
// background timer.
type RateLimiter struct {
	mu          sync.Mutex
	windows     map[string]*rateWindow
	maxRequests int
	window      time.Duration
	now         func() time.Time
}

// NewRateLimiter builds a limiter allowing maxRequests per window per client.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows:     make(map[string]*rateWindow),
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
}

// Allow records a request for the key and reports whether it fits the
// current window.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	for k, w := range rl.windows {
		if now.After(w.resetTime) {
			delete(rl.windows, k)
		}
	}

	w, ok := rl.windows[key]
	if !ok {
		w = &rateWindow{resetTime: now.Add(rl.window)}
		rl.windows[key] = w
	}

	if w.count >= rl.maxRequests {
		return false
	}
	w.count++
	return true
}

// ActiveKeys reports how many client windows are currently tracked.
func (rl *RateLimiter) ActiveKeys() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// RateLimit enforces the limiter per client IP, answering 429 on exceed.
// The limiter is injected so its lifecycle is the process's, not the
// package's.
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(ClientIP(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
