package jose

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter limits token issuance per key. Each key gets a token bucket that
// holds maxRate tokens and refills maxRate per window.
// The rate limiter is thread-safe and can be used concurrently.
type RateLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*limiterEntry
	limit      rate.Limit
	burst      int
	maxEntries int
	closed     bool
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter allowing maxRate requests per window.
// If maxRate or window is invalid, 100 per minute is used.
func NewRateLimiter(maxRate int, window time.Duration) *RateLimiter {
	if maxRate <= 0 {
		maxRate = 100
	}
	if window <= 0 {
		window = time.Minute
	}

	return &RateLimiter{
		limiters:   make(map[string]*limiterEntry),
		limit:      rate.Limit(float64(maxRate) / window.Seconds()),
		burst:      maxRate,
		maxEntries: 10000,
	}
}

// Allow checks if a single request is allowed for the given key.
// An empty key always returns false.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.AllowN(key, 1)
}

// AllowN checks if n requests are allowed for the given key.
// An empty key always returns false. n <= 0 always returns true.
func (rl *RateLimiter) AllowN(key string, n int) bool {
	if n <= 0 {
		return true
	}
	if key == "" {
		return false
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.closed {
		return false
	}

	now := time.Now()
	entry, exists := rl.limiters[key]
	if !exists {
		if len(rl.limiters) >= rl.maxEntries {
			rl.evictOldestUnsafe()
		}
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = now

	return entry.limiter.AllowN(now, n)
}

// Reset forgets the bucket for key so its next request starts full.
func (rl *RateLimiter) Reset(key string) {
	if key == "" {
		return
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.limiters, key)
}

// Close releases all buckets. After Close every Allow/AllowN returns false.
// It is safe to call Close multiple times.
func (rl *RateLimiter) Close() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.closed {
		return
	}

	rl.closed = true
	clear(rl.limiters)
	rl.limiters = nil
}

func (rl *RateLimiter) evictOldestUnsafe() {
	oldestKey := ""
	var oldest time.Time

	for key, e := range rl.limiters {
		if oldestKey == "" || e.lastSeen.Before(oldest) {
			oldestKey = key
			oldest = e.lastSeen
		}
	}

	if oldestKey != "" {
		delete(rl.limiters, oldestKey)
	}
}
