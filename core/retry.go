package core

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds how often a compare-and-swap style operation is reattempted
// after losing to a concurrent writer. Backoff doubles each attempt up to Max.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
	Max      time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 5, Backoff: 10 * time.Millisecond, Max: 200 * time.Millisecond}
}

// Retry runs fn until it succeeds, returns a non-conflict error, or the attempt
// budget runs out. An exhausted budget surfaces ErrTemporaryUnavailable.
func (p RetryPolicy) Retry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := p.Backoff

	var err error
	for attempt := 0; attempt < p.Attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !errors.Is(err, ErrConflict) {
			return err
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}

		backoff *= 2
		if backoff > p.Max {
			backoff = p.Max
		}
	}

	return ErrTemporaryUnavailable
}
