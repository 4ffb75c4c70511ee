package scraper

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// permanentError stops RetryWithBackoff.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// RetryWithBackoff calls fn up to maxRetries+1 times, doubling the delay
// after each failure with ±25% jitter. Errors wrapped by Permanent are
// returned at once, unwrapped.
func RetryWithBackoff(ctx context.Context, maxRetries int, initialDelay time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}
		delay := initialDelay << attempt
		if quarter := int64(delay) / 4; quarter > 0 {
			delay += time.Duration(rand.Int64N(2*quarter+1) - quarter)
		}
		if err := Sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
