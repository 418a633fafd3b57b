// Package httputil provides the HTTP plumbing shared by index clients:
// a retry helper for transient failures and the per-run network session.
package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks an error as transient. Index fetches wrap network
// timeouts and 5xx responses in this type so that [Retry] attempts them
// again instead of failing the resolution outright.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry runs fn up to attempts times. Only errors wrapped in
// [RetryableError] are retried; anything else aborts immediately. The
// wait between attempts starts at delay and doubles each time, and a
// cancelled context cuts the remaining attempts short.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !errors.As(err, new(*RetryableError)) {
			return err
		}
		if attempt == attempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
}

// RetryWithBackoff is [Retry] with the defaults index fetches use:
// three attempts starting at one second.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, 3, time.Second, fn)
}
