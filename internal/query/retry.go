package query

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy decides how often a failed fetch is repeated before the
// failure is stored on the entry.
type RetryPolicy struct {
	// Retries after the first attempt. Zero disables retrying.
	Retries  int
	Delay    time.Duration
	MaxDelay time.Duration
	// ShouldRetry filters retryable errors. Nil retries every error.
	ShouldRetry func(error) bool
}

// DefaultRetryPolicy retries three times starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Retries: 3, Delay: time.Second, MaxDelay: 30 * time.Second}
}

func (p RetryPolicy) run(ctx context.Context, fetch func(context.Context) (any, error)) (any, error) {
	if p.Retries <= 0 {
		return fetch(ctx)
	}

	b := backoff.NewExponentialBackOff()
	if p.Delay > 0 {
		b.InitialInterval = p.Delay
	}
	if p.MaxDelay > 0 {
		b.MaxInterval = p.MaxDelay
	}

	op := func() (any, error) {
		v, err := fetch(ctx)
		if err != nil && p.ShouldRetry != nil && !p.ShouldRetry(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(p.Retries)+1),
	)
}
