package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	bucketIdleTTL    = 10 * time.Minute
	sweepEveryLookup = 5000
)

type keyFunc func(*gin.Context) string

// KeyByAdminOrIP buckets authenticated admins by id and everyone else by
// client IP.
func KeyByAdminOrIP() keyFunc {
	return func(c *gin.Context) string {
		if id := AdminIDFrom(c); id != "" {
			return "admin:" + id
		}
		return "ip:" + c.ClientIP()
	}
}

type bucket struct {
	*rate.Limiter
	seen time.Time
}

// RateLimiter is the in-memory edge limiter: one token bucket per key, in
// front of every route. It only shields the process from bursts; signup
// quotas are enforced separately by the submission flow.
type RateLimiter struct {
	limit rate.Limit
	burst int
	key   keyFunc
	now   func() time.Time
	ttl   time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
	lookups int
}

// NewRateLimiter refills rps tokens per second up to burst (at least 1).
func NewRateLimiter(rps float64, burst int, key keyFunc) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   max(burst, 1),
		key:     key,
		now:     time.Now,
		ttl:     bucketIdleTTL,
		buckets: make(map[string]*bucket),
	}
}

// bucketFor returns key's limiter. Every sweepEveryLookup calls, idle buckets
// are dropped before the lookup.
func (rl *RateLimiter) bucketFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.lookups++; rl.lookups >= sweepEveryLookup {
		rl.lookups = 0
		for k, b := range rl.buckets {
			if now.Sub(b.seen) >= rl.ttl {
				delete(rl.buckets, k)
			}
		}
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{Limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.seen = now
	return b.Limiter
}

// IsRateBypass reports whether the request is an idempotent replay that must
// not spend a token.
func IsRateBypass(c *gin.Context) bool {
	return c.GetBool(ctxKeyRateBypass)
}

// Handler answers 429 with Retry-After once the caller's bucket is empty.
// A denied request does not consume the next token.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		now := rl.now()
		r := rl.bucketFor(rl.key(c), now).ReserveN(now, 1)
		wait := r.DelayFrom(now)
		if r.OK() && wait == 0 {
			c.Next()
			return
		}
		r.CancelAt(now)

		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": RequestIDFrom(c),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}

// retryAfterSeconds is d rounded up to whole seconds, minimum 1. A bucket that
// never refills reports 60.
func retryAfterSeconds(d time.Duration) int {
	if d == rate.InfDuration {
		return 60
	}
	return max(int(math.Ceil(d.Seconds())), 1)
}
