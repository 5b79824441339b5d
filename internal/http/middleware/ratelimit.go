package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-api-scaffold/internal/apperr"
)

const (
	// bucketTTL evicts buckets idle for this long.
	bucketTTL = 10 * time.Minute
	// sweepEvery runs eviction once per this many lookups.
	sweepEvery = 5000
)

// KeyFunc maps a request to the identity whose bucket it drains.
type KeyFunc func(*gin.Context) string

// KeyByUserOrIP keys by the "userID" context value when an auth layer set
// one, else by client IP. Keys are prefixed ("user:", "ip:") so the two
// namespaces never collide.
func KeyByUserOrIP() KeyFunc {
	return func(c *gin.Context) string {
		if uid := asString(c.Value("userID")); uid != "" {
			return "user:" + uid
		}
		return "ip:" + c.ClientIP()
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a process-local, per-key token bucket limiter. Buckets are
// created on first use and idle ones are swept opportunistically, so memory
// stays bounded. Horizontally scaled deployments need a shared limiter in
// front instead. Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn KeyFunc

	mu      sync.Mutex
	buckets map[string]*bucket
	ttl     time.Duration
	lookups uint64
}

// NewRateLimiter builds a limiter refilling rps tokens per second up to
// burst (coerced to at least 1).
func NewRateLimiter(rps float64, burst int, keyFn KeyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		buckets: make(map[string]*bucket),
		ttl:     bucketTTL,
	}
}

// limiterFor returns the limiter for key, creating it on demand. The sweep
// runs before the lookup so a stale bucket is evicted even when it is the
// one being requested.
func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= sweepEvery {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.ttl {
				delete(rl.buckets, k)
			}
		}
		rl.lookups = 0
	}

	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.buckets[key] = &bucket{limiter: lim, lastSeen: now}
	return lim
}

// Handler enforces the limit. A rejected request gets Retry-After and a 429
// "Rate Limit Error" through the error boundary.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limiterFor(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", "1")
		_ = c.Error(apperr.New(http.StatusTooManyRequests, "Too many requests, please try again later!",
			apperr.WithName("Rate Limit Error")))
		c.Abort()
	}
}
