// Package retry runs external calls with a per-attempt timeout and bounded
// exponential backoff with jitter.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds a retried call. Retries = 1 means at most two attempts.
type Policy struct {
	Retries   int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// Timeout applies to each attempt; 0 disables it.
	Timeout time.Duration
	// Retryable reports whether an error is worth another attempt. Nil retries everything.
	Retryable func(error) bool
}

// Do calls fn until it succeeds, the attempts run out, the error is not
// retryable, or ctx is done. It returns the last error from fn, or ctx.Err()
// when ctx ends while waiting between attempts.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	op := func() error {
		err := p.call(ctx, fn)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || (p.Retryable != nil && !p.Retryable(err)) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(op, p.backOff(ctx)) //nolint:wrapcheck // callers wrap with their own context
}

func (p Policy) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.Timeout <= 0 {
		return fn(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return fn(actx)
}

// backOff doubles BaseDelay per attempt up to MaxDelay with +/-50% jitter.
func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff = &backoff.ZeroBackOff{}
	if p.BaseDelay > 0 {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = p.BaseDelay
		eb.Multiplier = 2
		eb.RandomizationFactor = 0.5
		if p.MaxDelay > 0 {
			eb.MaxInterval = p.MaxDelay
		}
		eb.MaxElapsedTime = 0
		eb.Reset()
		b = eb
	}
	retries := max(p.Retries, 0)
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx) //nolint:gosec // non-negative
}
