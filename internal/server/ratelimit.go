package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/conneroisu/formify/internal/errors"
	"github.com/conneroisu/formify/internal/logging"
)

const bucketExpiry = 10 * time.Minute

// RateLimiter implements token bucket rate limiting per key, usually the
// client IP. A nil *RateLimiter allows everything.
type RateLimiter struct {
	perMinute   int
	buckets     map[string]*TokenBucket
	bucketMutex sync.Mutex
	logger      logging.Logger
	now         func() time.Time
	stopOnce    sync.Once
	stop        chan struct{}
}

// TokenBucket holds the tokens left for one key.
type TokenBucket struct {
	tokens     float64
	lastRefill time.Time
}

// RateLimitResult represents the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// NewRateLimiter allows perMinute requests per key, refilled continuously,
// with a burst of perMinute. perMinute <= 0 returns nil.
func NewRateLimiter(perMinute int, logger logging.Logger) *RateLimiter {
	if perMinute <= 0 {
		return nil
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	rl := &RateLimiter{
		perMinute: perMinute,
		buckets:   make(map[string]*TokenBucket),
		logger:    logger.WithComponent("ratelimit"),
		now:       time.Now,
		stop:      make(chan struct{}),
	}
	go rl.cleanupExpiredBuckets()
	return rl
}

// Check consumes one token for key.
func (rl *RateLimiter) Check(key string) RateLimitResult {
	if rl == nil {
		return RateLimitResult{Allowed: true}
	}

	rl.bucketMutex.Lock()
	defer rl.bucketMutex.Unlock()

	now := rl.now()
	bucket, ok := rl.buckets[key]
	if !ok {
		bucket = &TokenBucket{tokens: float64(rl.perMinute), lastRefill: now}
		rl.buckets[key] = bucket
	}

	capacity := float64(rl.perMinute)
	bucket.tokens += now.Sub(bucket.lastRefill).Seconds() * capacity / 60
	if bucket.tokens > capacity {
		bucket.tokens = capacity
	}
	bucket.lastRefill = now

	if bucket.tokens >= 1 {
		bucket.tokens--
		return RateLimitResult{Allowed: true, Remaining: int(bucket.tokens)}
	}

	missing := 1 - bucket.tokens
	retry := time.Duration(missing * float64(time.Minute) / capacity)
	return RateLimitResult{Allowed: false, RetryAfter: retry}
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	if rl == nil {
		return
	}
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanupExpiredBuckets() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.performCleanup()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) performCleanup() {
	rl.bucketMutex.Lock()
	defer rl.bucketMutex.Unlock()
	now := rl.now()
	for key, bucket := range rl.buckets {
		if now.Sub(bucket.lastRefill) > bucketExpiry {
			delete(rl.buckets, key)
		}
	}
}

// RateLimitMiddleware answers 429 once a client runs out of tokens.
func RateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			result := limiter.Check(ip)

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.perMinute))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))

			if !result.Allowed {
				w.Header().Set("Retry-After", fmt.Sprintf("%.0f", result.RetryAfter.Seconds()+0.5))
				limiter.logger.Warn(context.Background(),
					errors.NewSecurityError("RATE_LIMIT_EXCEEDED", "rate limit exceeded"),
					"Rate limit exceeded",
					"client_ip", ip,
					"path", r.URL.Path)
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
