package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTokenBucket_AllowConsumesTokens(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	tb := NewTokenBucket(TokenBucketConfig{Capacity: 2, RefillRate: 1})
	tb.now = clock.Now
	tb.lastRefillAt = clock.Now()

	if !tb.Allow() || !tb.Allow() {
		t.Fatal("expected two tokens to be available")
	}
	if tb.Allow() {
		t.Fatal("expected bucket to be empty")
	}

	clock.Advance(time.Second)
	if !tb.Allow() {
		t.Fatal("expected a token after refill")
	}
}

func TestTokenBucket_RefillCapsAtCapacity(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	tb := NewTokenBucket(TokenBucketConfig{Capacity: 3, RefillRate: 100, InitialTokens: 1})
	tb.now = clock.Now
	tb.lastRefillAt = clock.Now()

	clock.Advance(time.Hour)

	if got := tb.Tokens(); got != 3 {
		t.Errorf("Tokens() = %v, want 3", got)
	}
}

func TestTokenBucket_WaitHonoursContext(t *testing.T) {
	tb := NewTokenBucket(TokenBucketConfig{Capacity: 1, RefillRate: 0.001})
	if !tb.Allow() {
		t.Fatal("expected initial token")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := tb.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() = %v, want DeadlineExceeded", err)
	}
}

func TestEndpointLimiter_PerEndpointBuckets(t *testing.T) {
	el := NewEndpointLimiter(TokenBucketConfig{Capacity: 1, RefillRate: 0.001})

	if !el.Allow("a.example") {
		t.Fatal("a.example: expected first call to pass")
	}
	if el.Allow("a.example") {
		t.Fatal("a.example: expected second call to be limited")
	}
	if !el.Allow("b.example") {
		t.Fatal("b.example: expected its own bucket")
	}
}
