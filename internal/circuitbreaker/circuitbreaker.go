// Package circuitbreaker implements a circuit breaker with a time-boxed
// open state, used to stop calling providers that keep failing.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

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

// ErrOpen is returned when the circuit rejects a call.
var ErrOpen = errors.New("circuit breaker is open")

// Config holds circuit breaker configuration.
type Config struct {
	// FailureThreshold is the number of consecutive failures before the
	// circuit opens.
	FailureThreshold int
	// SuccessThreshold is the number of successes in half-open state
	// before the circuit closes again.
	SuccessThreshold int
	// OpenTimeout is how long the circuit stays open before allowing a
	// probe request (half-open).
	OpenTimeout time.Duration
	// OnStateChange is invoked on every transition.
	OnStateChange func(from, to State)
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		OpenTimeout:      30 * time.Second,
	}
}

// CircuitBreaker tracks consecutive failures for one downstream dependency.
type CircuitBreaker struct {
	config *Config

	mu                   sync.Mutex
	state                State
	openedAt             time.Time
	openTimeout          time.Duration
	consecutiveFailures  int
	consecutiveSuccesses int

	totalRequests   int64
	totalFailures   int64
	totalRejections int64
}

// New creates a circuit breaker in the closed state.
func New(config *Config) *CircuitBreaker {
	if config == nil {
		config = DefaultConfig()
	}
	return &CircuitBreaker{
		config:      config,
		state:       StateClosed,
		openTimeout: config.OpenTimeout,
	}
}

// Execute runs fn under circuit breaker protection. When the circuit is
// open, fn is not called and ErrOpen is returned.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.allow(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.record(err)
	return err
}

// ForceOpen opens the circuit for the given duration regardless of the
// failure count. Used after terminal failure classes (quota, auth) so the
// provider is skipped for the remainder of the window.
func (cb *CircuitBreaker) ForceOpen(d time.Duration) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.openTimeout = d
	cb.transition(StateOpen)
	cb.openedAt = time.Now()
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset returns the breaker to the closed state and restores the configured
// open timeout.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.openTimeout = cb.config.OpenTimeout
	cb.transition(StateClosed)
}

// Stats holds counters for observability.
type Stats struct {
	State           State
	TotalRequests   int64
	TotalFailures   int64
	TotalRejections int64
}

// GetStats returns current counters.
func (cb *CircuitBreaker) GetStats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return Stats{
		State:           cb.state,
		TotalRequests:   cb.totalRequests,
		TotalFailures:   cb.totalFailures,
		TotalRejections: cb.totalRejections,
	}
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed, StateHalfOpen:
		cb.totalRequests++
		return nil
	case StateOpen:
		if time.Since(cb.openedAt) >= cb.openTimeout {
			cb.transition(StateHalfOpen)
			cb.totalRequests++
			return nil
		}
		cb.totalRejections++
		return ErrOpen
	default:
		cb.totalRejections++
		return ErrOpen
	}
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.consecutiveFailures = 0
		if cb.state == StateHalfOpen {
			cb.consecutiveSuccesses++
			if cb.consecutiveSuccesses >= cb.config.SuccessThreshold {
				cb.openTimeout = cb.config.OpenTimeout
				cb.transition(StateClosed)
			}
		}
		return
	}

	cb.totalFailures++
	cb.consecutiveFailures++

	switch cb.state {
	case StateClosed:
		if cb.consecutiveFailures >= cb.config.FailureThreshold {
			cb.transition(StateOpen)
			cb.openedAt = time.Now()
		}
	case StateHalfOpen:
		// A failed probe reopens the circuit.
		cb.transition(StateOpen)
		cb.openedAt = time.Now()
	case StateOpen:
	}
}

// transition must be called with cb.mu held.
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.consecutiveSuccesses = 0
	if to == StateClosed {
		cb.consecutiveFailures = 0
	}
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, to)
	}
}
