package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNetwork marks backend connectivity failures (Redis, MongoDB).
var ErrNetwork = errors.New("network error")

// RetryableError marks an error as transient.
type RetryableError struct{ Err error }

// Retryable wraps err as transient. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err was wrapped with [Retryable].
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff controls [RetryWithBackoff].
type Backoff struct {
	Attempts int
	Delay    time.Duration // doubled after every failed attempt
}

// DefaultBackoff is three attempts starting at 200ms.
var DefaultBackoff = Backoff{Attempts: 3, Delay: 200 * time.Millisecond}

// RetryWithBackoff calls fn until it succeeds, returns a non-retryable
// error, runs out of attempts, or ctx is done.
func RetryWithBackoff(ctx context.Context, b Backoff, fn func() error) error {
	if b.Attempts < 1 {
		b.Attempts = 1
	}
	delay := b.Delay
	var lastErr error

	for i := 0; i < b.Attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < b.Attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}
