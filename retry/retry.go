// Package retry provides bounded retries with capped exponential backoff
// and jitter. Only errors wrapped as recoverable are retried; everything
// else propagates immediately.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseWait   = 1 * time.Second
	DefaultMaxWait    = 30 * time.Second
)

// RecoverableError marks an error as safe to retry.
type RecoverableError struct {
	Err error
}

func (e *RecoverableError) Error() string { return e.Err.Error() }

func (e *RecoverableError) Unwrap() error { return e.Err }

// NewRecoverableError wraps err so that Do will retry it.
func NewRecoverableError(err error) error {
	return &RecoverableError{Err: err}
}

// IsRecoverable reports whether err is marked recoverable.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	var recoverable *RecoverableError
	return errors.As(err, &recoverable)
}

type config struct {
	maxRetries int
	baseWait   time.Duration
	maxWait    time.Duration
}

// Option configures a call to Do.
type Option func(*config)

// WithMaxRetries sets the maximum number of attempts.
func WithMaxRetries(n int) Option {
	return func(c *config) { c.maxRetries = n }
}

// WithBaseWait sets the wait before the first retry. Subsequent waits
// double, capped by WithMaxWait.
func WithBaseWait(d time.Duration) Option {
	return func(c *config) { c.baseWait = d }
}

// WithMaxWait caps the backoff interval.
func WithMaxWait(d time.Duration) Option {
	return func(c *config) { c.maxWait = d }
}

// Do invokes f up to the configured number of attempts, sleeping between
// attempts with exponential backoff plus up to 10% jitter. It returns nil
// on the first success, the error unchanged if it is not recoverable, or
// the last error (unwrapped from its recoverable marker) once attempts are
// exhausted. The context cancels any in-progress backoff wait.
func Do(ctx context.Context, f func() error, opts ...Option) error {
	c := &config{
		maxRetries: DefaultMaxRetries,
		baseWait:   DefaultBaseWait,
		maxWait:    DefaultMaxWait,
	}
	for _, opt := range opts {
		opt(c)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(float64(c.baseWait) * math.Pow(2, float64(attempt-1)))
			if backoff > c.maxWait {
				backoff = c.maxWait
			}
			jitter := time.Duration(rand.Float64() * float64(backoff) * 0.1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff + jitter):
			}
		}

		err := f()
		if err == nil {
			return nil
		}
		if !IsRecoverable(err) {
			return err
		}
		lastErr = err
	}

	var recoverable *RecoverableError
	if errors.As(lastErr, &recoverable) {
		return recoverable.Err
	}
	return lastErr
}
