package middleware

import (
	"net/http"
	"sync"
	"time"
)

// TokenBucket implements token bucket rate limiting. Tokens are fractional
// so refill rates below one token per second still accrue.
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

func NewTokenBucket(capacity int, refillRate float64) *TokenBucket {
	return &TokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	tb.tokens += now.Sub(tb.lastRefill).Seconds() * tb.refillRate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// RateLimiter keeps one bucket per authenticated user. Extraction calls are
// the expensive operation being protected; everything else stays unmetered.
type RateLimiter struct {
	mu         sync.RWMutex
	buckets    map[string]*TokenBucket
	capacity   int
	refillRate float64
}

func NewRateLimiter(capacity int, refillRate float64) *RateLimiter {
	return &RateLimiter{
		buckets:    make(map[string]*TokenBucket),
		capacity:   capacity,
		refillRate: refillRate,
	}
}

// NewPerMinuteRateLimiter sizes each bucket so the steady-state rate matches
// perMinute, with a burst of the same size.
func NewPerMinuteRateLimiter(perMinute int) *RateLimiter {
	return NewRateLimiter(perMinute, float64(perMinute)/60)
}

func (rl *RateLimiter) bucketFor(key string) *TokenBucket {
	rl.mu.RLock()
	tb, ok := rl.buckets[key]
	rl.mu.RUnlock()
	if ok {
		return tb
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if tb, ok := rl.buckets[key]; ok {
		return tb
	}
	tb = NewTokenBucket(rl.capacity, rl.refillRate)
	rl.buckets[key] = tb
	return tb
}

// Limit rejects requests once the caller's bucket runs dry. Keyed by the
// authenticated user, falling back to the remote address.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if u := UserFromContext(r.Context()); u != nil {
			key = u.ID
		}
		if !rl.bucketFor(key).Allow() {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
