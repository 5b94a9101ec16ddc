// Package retry runs a request under a bounded retry policy, independent of
// the endpoint being called.
package retry

import (
	"context"
	"log/slog"
	"time"
)

// Policy bounds how often and how patiently a request is retried.
type Policy struct {
	// MaxAttempts is the total number of calls, including the first one.
	MaxAttempts int

	// Backoff returns the delay before attempt number attempt+1, where
	// attempt is the 1-based index of the attempt that just failed.
	Backoff func(attempt int) time.Duration

	// Retryable reports whether err is worth another attempt. A nil
	// Retryable retries every error.
	Retryable func(err error) bool
}

// Linear returns a backoff of base scaled by the attempt index (base, 2*base, ...).
func Linear(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return base * time.Duration(attempt)
	}
}

// Fixed returns a constant backoff.
func Fixed(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration {
		return d
	}
}

// Do calls fn until it succeeds, returns a non-retryable error, the policy's
// attempts are exhausted, or ctx is done. The last error is returned.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var (
		result T
		err    error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err = fn(ctx)
		if err == nil {
			return result, nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return result, err
		}
		if attempt == attempts {
			break
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}
		slog.Debug("Retrying request", "attempt", attempt, "max_attempts", attempts, "delay", delay, "err", err)

		if delay <= 0 {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			continue
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}
	}

	return result, err
}
