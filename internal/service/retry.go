package service

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy describes a bounded retry loop
type RetryPolicy struct {
	MaxAttempts int
	// Backoff returns the pause after a failed attempt (1-based)
	Backoff func(attempt int, err error) time.Duration
	// Retryable reports whether another attempt may follow err. Nil retries everything.
	Retryable func(err error) bool
}

// Do calls fn until it succeeds, the attempts run out, the error is not
// retryable, or ctx is done. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx, attempt); err == nil {
			return nil
		}
		if attempt == attempts || (p.Retryable != nil && !p.Retryable(err)) {
			break
		}

		var wait time.Duration
		if p.Backoff != nil {
			wait = p.Backoff(attempt, err)
		}
		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
	return err
}

// imageRetryPolicy waits a fixed period after a rate limit and a linearly
// growing period after any other failure.
func imageRetryPolicy(attempts int, rateLimitBackoff, retryBackoff time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: attempts,
		Backoff: func(attempt int, err error) time.Duration {
			if errors.Is(err, ErrImageRateLimited) {
				return rateLimitBackoff
			}
			return time.Duration(attempt) * retryBackoff
		},
		Retryable: func(err error) bool {
			return !errors.Is(err, context.Canceled)
		},
	}
}
