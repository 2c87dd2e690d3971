package api

import (
	"sync"
	"time"
)

// Per-key token bucket
type bucket struct {
	tokens     int
	lastRefill time.Time
}

// Rate limiter struct, used Token Bucket strategy with one bucket per
// caller so a single noisy client cannot starve everyone else.
type RateLimiter struct {
	buckets    map[string]*bucket
	maxToken   int
	refillRate time.Duration
	mutex      sync.Mutex
}

// Constructor method for RateLimiter
func NewRateLimiter(maxToken int, refillRate time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets:    make(map[string]*bucket),
		maxToken:   maxToken,
		refillRate: refillRate,
	}
}

// Method to check if the current request can pass on, by checking the
// available tokens for its key while refilling if needed
func (limiter *RateLimiter) Allow(key string) bool {
	// Use mutex to avoid race condition
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()

	b, ok := limiter.buckets[key]
	if !ok {
		b = &bucket{tokens: limiter.maxToken, lastRefill: time.Now()}
		limiter.buckets[key] = b
	}

	// Refill token
	elapsed := time.Since(b.lastRefill)
	refill := int(elapsed / limiter.refillRate)
	if refill > 0 {
		b.tokens += refill
		// If tokens exceed max token, we flatten it down
		if b.tokens > limiter.maxToken {
			b.tokens = limiter.maxToken
		}
		b.lastRefill = time.Now()
	}

	// Consume token
	if b.tokens > 0 {
		b.tokens--
		return true
	}

	// If no token available, simply refuse
	return false
}
