package resilience

import (
	"context"
	"sync"
	"time"
)

// TokenBucketConfig holds token bucket configuration.
type TokenBucketConfig struct {
	// Capacity is the maximum number of tokens in the bucket.
	Capacity int

	// RefillRate is tokens added per second.
	RefillRate float64

	// InitialTokens is the number of tokens at startup (0 means Capacity).
	InitialTokens int
}

// DefaultTokenBucketConfig returns default configuration: bursts of 20
// requests, 10 requests per second sustained.
func DefaultTokenBucketConfig() TokenBucketConfig {
	return TokenBucketConfig{
		Capacity:   20,
		RefillRate: 10.0,
	}
}

// TokenBucket implements the token bucket rate limiting algorithm.
type TokenBucket struct {
	mu sync.Mutex

	capacity     float64
	refillRate   float64
	tokens       float64
	lastRefillAt time.Time
	now          func() time.Time
}

// NewTokenBucket creates a new token bucket.
func NewTokenBucket(config TokenBucketConfig) *TokenBucket {
	initial := config.InitialTokens
	if initial <= 0 || initial > config.Capacity {
		initial = config.Capacity
	}

	return &TokenBucket{
		capacity:     float64(config.Capacity),
		refillRate:   config.RefillRate,
		tokens:       float64(initial),
		lastRefillAt: time.Now(),
		now:          time.Now,
	}
}

// refill adds tokens for elapsed time (must hold lock).
func (tb *TokenBucket) refill() {
	now := tb.now()
	tb.tokens += now.Sub(tb.lastRefillAt).Seconds() * tb.refillRate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefillAt = now
}

// Allow takes a token if one is available (non-blocking).
func (tb *TokenBucket) Allow() bool {
	_, ok := tb.reserve()
	return ok
}

// reserve takes a token, or reports how long until one is available.
func (tb *TokenBucket) reserve() (time.Duration, bool) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= 1 {
		tb.tokens--
		return 0, true
	}
	if tb.refillRate <= 0 {
		return time.Second, false
	}
	deficit := 1 - tb.tokens
	return time.Duration(deficit / tb.refillRate * float64(time.Second)), false
}

// Wait blocks until a token is available or ctx is done.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		wait, ok := tb.reserve()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Tokens returns the current number of available tokens.
func (tb *TokenBucket) Tokens() float64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	return tb.tokens
}
