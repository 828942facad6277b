package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/handbook/internal/response"
)

// RateLimiter implements a simple per-IP token bucket rate limiter.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // Tokens per interval
	interval time.Duration // Refill interval
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	tokens   int
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter (e.g., 120 requests per minute) and
// starts evicting idle visitors. Call Stop to end the eviction loop.
func NewRateLimiter(rate int, interval time.Duration) *RateLimiter {
	rl := newRateLimiter(rate, interval, time.Now)
	go rl.evictLoop()
	return rl
}

func newRateLimiter(rate int, interval time.Duration, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		interval: interval,
		now:      now,
		stop:     make(chan struct{}),
	}
}

// Stop ends the eviction loop.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Allow takes one token for key and reports whether the request may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, exists := rl.visitors[key]
	if !exists {
		v = &visitor{tokens: rl.rate, lastSeen: now}
		rl.visitors[key] = v
	}

	// Whole intervals only, so lastSeen advances by what was consumed.
	if elapsed := now.Sub(v.lastSeen); elapsed >= rl.interval {
		v.tokens = min(rl.rate, v.tokens+int(elapsed/rl.interval)*rl.rate)
		v.lastSeen = now
	}

	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

// Middleware returns a Gin middleware that rate-limits requests by IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(rl.interval.Seconds()))
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.Header("Retry-After", retryAfter)
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) evictLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evict()
		}
	}
}

func (rl *RateLimiter) evict() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-3 * rl.interval)
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
}
