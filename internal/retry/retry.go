// Package retry provides bounded retries with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Config holds retry configuration.
type Config struct {
	MaxAttempts     int              // Maximum number of attempts
	InitialDelay    time.Duration    // Delay before the second attempt
	MaxDelay        time.Duration    // Cap on the backoff delay
	Multiplier      float64          // Backoff multiplier
	RandomizeFactor float64          // Jitter factor (0-1)
	RetryIf         func(error) bool // Predicate deciding whether to retry
}

// DefaultConfig returns the default retry configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:     3,
		InitialDelay:    200 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		Multiplier:      2.0,
		RandomizeFactor: 0.1,
		RetryIf:         DefaultRetryIf,
	}
}

// Operation is a retryable unit of work.
type Operation func(ctx context.Context) error

// Result reports what happened across all attempts.
type Result struct {
	Attempts int
	Duration time.Duration
	Err      error // nil on success
}

// Retrier executes operations with retries.
type Retrier struct {
	config *Config
}

// New creates a retrier, normalizing the configuration.
func New(config *Config) *Retrier {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.Multiplier < 1 {
		config.Multiplier = 1
	}
	if config.RandomizeFactor < 0 {
		config.RandomizeFactor = 0
	} else if config.RandomizeFactor > 1 {
		config.RandomizeFactor = 1
	}
	if config.RetryIf == nil {
		config.RetryIf = DefaultRetryIf
	}
	return &Retrier{config: config}
}

// Do executes op until it succeeds, a non-retryable error occurs, attempts
// are exhausted, or the context is cancelled.
func (r *Retrier) Do(ctx context.Context, op Operation) *Result {
	start := time.Now()
	result := &Result{}

	var lastErr error
	delay := r.config.InitialDelay

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		result.Attempts = attempt

		if err := ctx.Err(); err != nil {
			lastErr = fmt.Errorf("context cancelled: %w", err)
			break
		}

		err := op(ctx)
		if err == nil {
			result.Duration = time.Since(start)
			return result
		}
		lastErr = err

		if !r.config.RetryIf(err) || attempt >= r.config.MaxAttempts {
			break
		}

		select {
		case <-time.After(r.jitter(delay)):
			delay = r.next(delay)
		case <-ctx.Done():
			lastErr = fmt.Errorf("context cancelled during retry delay: %w", ctx.Err())
			result.Duration = time.Since(start)
			result.Err = lastErr
			return result
		}
	}

	result.Duration = time.Since(start)
	result.Err = lastErr
	return result
}

func (r *Retrier) jitter(delay time.Duration) time.Duration {
	if r.config.RandomizeFactor == 0 {
		return delay
	}
	delta := float64(delay) * r.config.RandomizeFactor
	return time.Duration(float64(delay) - delta + rand.Float64()*2*delta)
}

func (r *Retrier) next(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * r.config.Multiplier)
	if r.config.MaxDelay > 0 && next > r.config.MaxDelay {
		return r.config.MaxDelay
	}
	return next
}

// TemporaryError marks an error as retryable.
type TemporaryError struct {
	Err error
}

func (e *TemporaryError) Error() string {
	return fmt.Sprintf("temporary error: %v", e.Err)
}

func (e *TemporaryError) Unwrap() error { return e.Err }

func (e *TemporaryError) Temporary() bool { return true }

// PermanentError marks an error as not retryable.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// DefaultRetryIf retries unless the error is marked permanent.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}

	var permErr *PermanentError
	if errors.As(err, &permErr) {
		return false
	}

	type temporary interface {
		Temporary() bool
	}
	var te temporary
	if errors.As(err, &te) {
		return te.Temporary()
	}

	return true
}
