package resilience

import (
	"context"
	"sync"
)

// EndpointLimiter manages one token bucket per remote endpoint.
type EndpointLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*TokenBucket
	config   TokenBucketConfig
}

// NewEndpointLimiter creates a per-endpoint rate limiter.
func NewEndpointLimiter(config TokenBucketConfig) *EndpointLimiter {
	return &EndpointLimiter{
		limiters: make(map[string]*TokenBucket),
		config:   config,
	}
}

func (el *EndpointLimiter) limiter(endpoint string) *TokenBucket {
	el.mu.RLock()
	l, ok := el.limiters[endpoint]
	el.mu.RUnlock()
	if ok {
		return l
	}

	el.mu.Lock()
	defer el.mu.Unlock()

	if l, ok := el.limiters[endpoint]; ok {
		return l
	}
	l = NewTokenBucket(el.config)
	el.limiters[endpoint] = l
	return l
}

// Allow reports whether a call to endpoint can proceed now.
func (el *EndpointLimiter) Allow(endpoint string) bool {
	return el.limiter(endpoint).Allow()
}

// Wait blocks until a call to endpoint can proceed or ctx is done.
func (el *EndpointLimiter) Wait(ctx context.Context, endpoint string) error {
	return el.limiter(endpoint).Wait(ctx)
}
