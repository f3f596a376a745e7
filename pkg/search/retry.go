package search

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds the attempts of one operation. MaxRetries counts the
// attempts after the first, so MaxRetries=2 allows three calls in total.
// The wait before retry n (0-based) is min(InitialInterval*Multiplier^n, MaxInterval).
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultRetryPolicy waits 1s, 2s, 4s, then 5s between attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval: time.Second,
		MaxInterval:     5 * time.Second,
		Multiplier:      2,
	}
}

// WithMaxRetries returns a copy of the policy with the given retry budget.
func (p RetryPolicy) WithMaxRetries(n int) RetryPolicy {
	if n < 0 {
		n = 0
	}
	p.MaxRetries = n
	return p
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	eb.MaxInterval = p.MaxInterval
	eb.Multiplier = p.Multiplier
	eb.RandomizationFactor = 0
	eb.MaxElapsedTime = 0
	eb.Reset()
	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Retry runs op until it succeeds, returns a Permanent error, or the policy's
// retry budget is spent. The last error is returned on exhaustion. notify, when
// non-nil, is called before each wait.
func Retry[T any](ctx context.Context, policy RetryPolicy, op func(attempt int) (T, error), notify func(attempt int, err error, wait time.Duration)) (T, error) {
	attempt := 0
	operation := func() (T, error) {
		current := attempt
		attempt++
		return op(current)
	}
	var onRetry backoff.Notify
	if notify != nil {
		onRetry = func(err error, wait time.Duration) {
			notify(attempt-1, err, wait)
		}
	}
	return backoff.RetryNotifyWithData[T](operation, policy.backOff(ctx), onRetry)
}
