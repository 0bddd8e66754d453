// Package resilience guards reads from a remote store: a circuit breaker per
// host stops hammering a replica that keeps failing, and a token bucket per
// host caps the read rate.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// CircuitState is exported as the hrref_circuit_breaker_state gauge value.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

var stateNames = [...]string{StateClosed: "Closed", StateOpen: "Open", StateHalfOpen: "HalfOpen"}

func (s CircuitState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig mirrors the remote.breaker config block.
type CircuitBreakerConfig struct {
	// MaxFailures consecutive failed reads open the circuit.
	MaxFailures uint
	// Timeout is the cool-down before a trial read is let through.
	Timeout time.Duration
	// MaxHalfOpenRequests trial reads may be in flight at once.
	MaxHalfOpenRequests uint
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{MaxFailures: 5, Timeout: 30 * time.Second, MaxHalfOpenRequests: 1}
}

// CircuitBreaker tracks one host. Callers ask Allow before a read and Report
// its outcome afterwards.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu       sync.Mutex
	state    CircuitState
	failures uint
	openedAt time.Time
	trials   uint

	// onTransition runs under mu whenever the state changes.
	onTransition func(CircuitState)
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures is the current run of consecutive failures.
func (cb *CircuitBreaker) Failures() uint {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Allow returns ErrCircuitOpen while the circuit is open or all trial slots
// are taken. Once the cool-down has passed the first caller moves the circuit
// to half-open and takes a trial slot.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.cfg.Timeout {
			return ErrCircuitOpen
		}
		cb.trials = 0
		cb.transition(StateHalfOpen)
	}
	if cb.trials >= cb.cfg.MaxHalfOpenRequests {
		return ErrCircuitOpen
	}
	cb.trials++
	return nil
}

// Report records the outcome of a read that Allow let through. A success
// closes the circuit. A failure opens it once MaxFailures is reached, or at
// once when the read was a half-open trial.
func (cb *CircuitBreaker) Report(ok bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen && cb.trials > 0 {
		cb.trials--
	}
	if ok {
		cb.failures = 0
		cb.transition(StateClosed)
		return
	}

	cb.failures++
	if cb.state == StateHalfOpen || (cb.state == StateClosed && cb.failures >= cb.cfg.MaxFailures) {
		cb.openedAt = cb.now()
		cb.transition(StateOpen)
	}
}

// Reset closes the circuit and clears the failure run.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.trials = 0
	cb.transition(StateClosed)
}

func (cb *CircuitBreaker) transition(s CircuitState) {
	if cb.state == s {
		return
	}
	cb.state = s
	if cb.onTransition != nil {
		cb.onTransition(s)
	}
}
