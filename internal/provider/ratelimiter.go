package provider

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket pacing outbound API calls.
type RateLimiter struct {
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter creates a limiter allowing rpm requests per minute. A
// non-positive rpm disables limiting.
func NewRateLimiter(rpm int) *RateLimiter {
	if rpm <= 0 {
		return nil
	}
	return &RateLimiter{
		tokens:     rpm,
		maxTokens:  rpm,
		refillRate: time.Minute / time.Duration(rpm),
		lastRefill: time.Now(),
	}
}

// Allow consumes a token when one is available.
func (rl *RateLimiter) Allow() bool {
	if rl == nil {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	refill := int(now.Sub(rl.lastRefill) / rl.refillRate)
	if refill > 0 {
		rl.tokens = min(rl.maxTokens, rl.tokens+refill)
		rl.lastRefill = now
	}

	if rl.tokens > 0 {
		rl.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available or the context ends.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil {
		return nil
	}
	for {
		if rl.Allow() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}
