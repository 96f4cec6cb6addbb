// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides an in-memory token-bucket rate limiter keyed per caller.
// Quiz submissions run a full catalog ranking, so the limiter sits in front of
// the API to keep a single client from monopolizing the process.
//
// The limiter is process-local. Horizontally scaled deployments that need a
// global limit should use a shared store (Redis or similar) instead; this one
// covers the single-container setup the service ships in.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc maps a request to the identity its token bucket is keyed on.
// The returned string must be stable for the duration of the request.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP prefers the authenticated user ID (Gin context key "userID")
// and falls back to the client IP. Keys are prefixed so the user and IP
// namespaces cannot collide ("user:abc123" vs "ip:203.0.113.7").
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get("userID"); ok {
			if s, ok := v.(string); ok && s != "" {
				return "user:" + s
			}
		}
		return "ip:" + c.ClientIP()
	}
}

// bucket pairs a limiter with the last time its key was seen, so idle
// entries can be evicted.
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces per-key token-bucket limits.
//
// Buckets are created on demand in a mutex-guarded map. Entries idle longer
// than the TTL are evicted opportunistically during lookups, which bounds
// memory without a background goroutine. Safe for concurrent use.
type RateLimiter struct {
	rps     rate.Limit
	burst   int
	keyFn   keyFunc
	mu      sync.Mutex
	buckets map[string]*bucket

	ttl      time.Duration
	cleanupN uint64
}

// NewRateLimiter builds a limiter replenishing rps tokens per second with the
// given burst size, keyed by keyFn. A burst <= 0 is coerced to 1. rps of 0
// admits nothing.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		buckets: make(map[string]*bucket),
		ttl:     10 * time.Minute,
	}
}

// bucketFor returns the limiter for key, creating it if absent, and refreshes
// its lastSeen stamp. Every ~5000 lookups it sweeps the map for idle entries.
// The sweep runs before the fetch so a stale bucket is evicted even when it is
// the one being requested.
func (rl *RateLimiter) bucketFor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	rl.cleanupN++
	if rl.cleanupN >= 5000 {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.ttl {
				delete(rl.buckets, k)
			}
		}
		rl.cleanupN = 0
	}

	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		lim := b.limiter
		rl.mu.Unlock()
		return lim
	}

	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.buckets[key] = &bucket{limiter: lim, lastSeen: now}
	rl.mu.Unlock()
	return lim
}

// Handler returns Gin middleware that checks each request against its key's
// bucket. Rejected requests get a 429 with a compact JSON body carrying the
// request ID, plus a minimal Retry-After header.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rl.keyFn(c)
		lim := rl.bucketFor(key)

		if lim.Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get("X-Request-ID"),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}
