package apierr

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryAfterError carries the delay a provider asked for before the next
// attempt (gRPC RetryInfo on Vertex AI quota errors).
type RetryAfterError struct {
	Err   error
	After time.Duration
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("%v (retry after %s)", e.Err, e.After)
}

func (e *RetryAfterError) Unwrap() error {
	return e.Err
}

// RetryAfter returns the provider's requested delay, if err carries one.
func RetryAfter(err error) (time.Duration, bool) {
	var ra *RetryAfterError
	if errors.As(err, &ra) && ra.After > 0 {
		return ra.After, true
	}
	return 0, false
}

// RetryConfig holds retry parameters for exponential backoff.
//
// Invalid values are normalized:
//   - MaxRetries < 0 becomes 0 (single attempt)
//   - BaseDelay <= 0 becomes 1ms
//   - MaxDelay <= 0 becomes BaseDelay
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	// OnRetry, if set, is called before each wait with the attempt that just
	// failed (1-based), its error, and the delay before the next attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

func (c *RetryConfig) normalize() {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = c.BaseDelay
	}
}

// RetryWithBackoff executes fn with exponential backoff retry.
// It retries only if shouldRetry returns true for the error, and stops
// waiting as soon as ctx is done. A delay requested by the provider
// (RetryAfter) replaces the backoff delay for that wait, capped at MaxDelay.
func RetryWithBackoff[T any](
	ctx context.Context,
	cfg RetryConfig,
	fn func() (T, error),
	shouldRetry func(error) bool,
) (T, error) {
	cfg.normalize()

	var zero T
	var lastErr error
	delay := cfg.BaseDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := delay
			if hint, ok := RetryAfter(lastErr); ok {
				wait = min(hint, cfg.MaxDelay)
			}
			if cfg.OnRetry != nil {
				cfg.OnRetry(attempt, lastErr, wait)
			}
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
			delay = min(delay*2, cfg.MaxDelay)
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !shouldRetry(lastErr) {
			return zero, lastErr
		}
	}

	return zero, fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr)
}
