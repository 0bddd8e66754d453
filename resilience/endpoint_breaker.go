package resilience

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/willibrandon/hrref/observability"
)

// EndpointBreaker keeps one circuit breaker per remote endpoint (host) so a
// failing store replica does not trip calls to healthy ones.
type EndpointBreaker struct {
	config   CircuitBreakerConfig
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
}

// NewEndpointBreaker creates an endpoint breaker.
func NewEndpointBreaker(config CircuitBreakerConfig) *EndpointBreaker {
	return &EndpointBreaker{
		config:   config,
		breakers: make(map[string]*CircuitBreaker),
	}
}

func (eb *EndpointBreaker) breaker(endpoint string) *CircuitBreaker {
	eb.mu.RLock()
	b, ok := eb.breakers[endpoint]
	eb.mu.RUnlock()
	if ok {
		return b
	}

	eb.mu.Lock()
	defer eb.mu.Unlock()

	// Double-check after acquiring write lock
	if b, ok := eb.breakers[endpoint]; ok {
		return b
	}
	b = NewCircuitBreaker(eb.config)
	b.onTransition = func(s CircuitState) {
		observability.CircuitBreakerState.WithLabelValues(endpoint).Set(float64(s))
	}
	eb.breakers[endpoint] = b
	return b
}

// HTTPOperation is a function that performs an HTTP call.
type HTTPOperation func(ctx context.Context) (*http.Response, error)

// Execute runs op under the endpoint's breaker. Transport errors and 5xx
// responses count as failures; a 5xx response is still returned to the caller.
func (eb *EndpointBreaker) Execute(ctx context.Context, endpoint string, op HTTPOperation) (*http.Response, error) {
	b := eb.breaker(endpoint)
	if err := b.Allow(); err != nil {
		return nil, fmt.Errorf("circuit breaker open for %s: %w", endpoint, err)
	}

	resp, err := op(ctx)
	ok := err == nil && resp.StatusCode < 500
	if !ok {
		observability.CircuitBreakerFailures.WithLabelValues(endpoint).Inc()
	}
	b.Report(ok)
	return resp, err
}

// State returns the breaker state for endpoint. Unknown endpoints are Closed.
func (eb *EndpointBreaker) State(endpoint string) CircuitState {
	eb.mu.RLock()
	b, ok := eb.breakers[endpoint]
	eb.mu.RUnlock()
	if !ok {
		return StateClosed
	}
	return b.State()
}

// Reset closes the breaker for endpoint.
func (eb *EndpointBreaker) Reset(endpoint string) {
	eb.mu.RLock()
	b, ok := eb.breakers[endpoint]
	eb.mu.RUnlock()
	if ok {
		b.Reset()
	}
}
