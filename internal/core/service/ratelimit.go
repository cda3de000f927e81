package service

import (
	"strconv"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiterRegistry manages per-user token bucket limiters for token
// issuance.
type RateLimiterRegistry struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewRateLimiterRegistry creates a registry issuing limitPerSec tokens per
// second with the given burst to every distinct key.
func NewRateLimiterRegistry(limitPerSec float64, burst int) *RateLimiterRegistry {
	return &RateLimiterRegistry{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(limitPerSec),
		burst:    burst,
	}
}

// AllowUser reports whether the user may perform another issuance now.
func (r *RateLimiterRegistry) AllowUser(userID int64) bool {
	return r.getOrCreate(strconv.FormatInt(userID, 10)).Allow()
}

func (r *RateLimiterRegistry) getOrCreate(key string) *rate.Limiter {
	r.mu.RLock()
	limiter, exists := r.limiters[key]
	r.mu.RUnlock()
	if exists {
		return limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring the write lock
	if limiter, exists := r.limiters[key]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(r.limit, r.burst)
	r.limiters[key] = limiter
	return limiter
}

// Delete removes the limiter for a key.
func (r *RateLimiterRegistry) Delete(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.limiters, key)
}

// Clear removes all limiters.
func (r *RateLimiterRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limiters = make(map[string]*rate.Limiter)
}
