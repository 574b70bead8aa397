// Package resilience guards catalog sources with a circuit breaker and optional timeouts.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state
type State int

const (
	// StateClosed allows all requests through
	StateClosed State = iota
	// StateOpen blocks all requests
	StateOpen
	// StateHalfOpen lets one trial through to test recovery
	StateHalfOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitBreakerOpen is returned when the circuit breaker is open
var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

// CircuitBreaker stops calling a failing catalog source for a cool-down
// period, so a dead CDN does not cost every page load a full round trip.
type CircuitBreaker struct {
	maxFailures   int
	timeout       time.Duration
	state         State
	failures      int
	probing       bool
	lastFailTime  time.Time
	now           func() time.Time
	onStateChange func(from, to State)
	mu            sync.Mutex
}

// Option configures a CircuitBreaker.
type Option func(*CircuitBreaker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(cb *CircuitBreaker) { cb.now = now }
}

// OnStateChange registers a callback run, outside the lock, after every transition.
func OnStateChange(fn func(from, to State)) Option {
	return func(cb *CircuitBreaker) { cb.onStateChange = fn }
}

// NewCircuitBreaker opens after maxFailures consecutive failures and stays
// open for timeout. maxFailures <= 0 disables the breaker.
func NewCircuitBreaker(maxFailures int, timeout time.Duration, opts ...Option) *CircuitBreaker {
	cb := &CircuitBreaker{
		maxFailures: maxFailures,
		timeout:     timeout,
		state:       StateClosed,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Execute runs fn if the circuit breaker allows it
func (cb *CircuitBreaker) Execute(fn func() error) error {
	return cb.ExecuteContext(context.Background(), func(context.Context) error { return fn() })
}

// ExecuteContext runs fn if the breaker allows it. Cancellation of ctx by
// the caller is not counted as a failure of the source.
func (cb *CircuitBreaker) ExecuteContext(ctx context.Context, fn func(context.Context) error) error {
	if cb == nil || cb.maxFailures <= 0 {
		return fn(ctx)
	}
	if !cb.acquire() {
		return ErrCircuitBreakerOpen
	}

	err := fn(ctx)
	switch {
	case err == nil:
		cb.recordSuccess()
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		cb.release()
	default:
		cb.recordFailure()
	}
	return err
}

func (cb *CircuitBreaker) acquire() bool {
	cb.mu.Lock()
	switch cb.state {
	case StateClosed:
		cb.mu.Unlock()
		return true
	case StateOpen:
		if cb.now().Sub(cb.lastFailTime) < cb.timeout {
			cb.mu.Unlock()
			return false
		}
		cb.probing = true
		cb.transition(StateHalfOpen)
		return true
	default:
		if cb.probing {
			cb.mu.Unlock()
			return false
		}
		cb.probing = true
		cb.mu.Unlock()
		return true
	}
}

func (cb *CircuitBreaker) release() {
	cb.mu.Lock()
	cb.probing = false
	cb.mu.Unlock()
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	cb.lastFailTime = cb.now()
	cb.probing = false
	if cb.state == StateHalfOpen {
		cb.failures = 0
		cb.transition(StateOpen)
		return
	}
	cb.failures++
	if cb.failures >= cb.maxFailures && cb.state == StateClosed {
		cb.transition(StateOpen)
		return
	}
	cb.mu.Unlock()
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	cb.failures = 0
	cb.probing = false
	if cb.state == StateHalfOpen {
		cb.transition(StateClosed)
		return
	}
	cb.mu.Unlock()
}

// transition must be called with mu held; it releases mu.
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	cb.state = to
	hook := cb.onStateChange
	cb.mu.Unlock()
	if hook != nil && from != to {
		hook(from, to)
	}
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// GetFailures returns the consecutive failure count
func (cb *CircuitBreaker) GetFailures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Reset closes the breaker and forgets past failures
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	cb.failures = 0
	cb.probing = false
	cb.transition(StateClosed)
}
