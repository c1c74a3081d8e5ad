package generation

import (
	"context"
	"errors"
	"time"
)

const (
	DefaultMaxRetries   = 2
	DefaultRetryBackoff = time.Second
)

// Policy controls how failed generation attempts are retried.
type Policy struct {
	// MaxRetries is the number of additional attempts after the first one.
	MaxRetries int
	// Backoff returns the delay before the given retry (1-based).
	Backoff func(retry int) time.Duration
	// Retryable decides whether an attempt error is worth another try.
	Retryable func(err error) bool
}

// DefaultPolicy retries twice with a fixed one second delay.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		Backoff:    FixedBackoff(DefaultRetryBackoff),
		Retryable:  DefaultRetryable,
	}
}

// FixedBackoff waits the same delay before every retry.
func FixedBackoff(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

// DefaultRetryable retries everything except caller cancellation.
func DefaultRetryable(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

func (p Policy) normalized() Policy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.Backoff == nil {
		p.Backoff = FixedBackoff(DefaultRetryBackoff)
	}
	if p.Retryable == nil {
		p.Retryable = DefaultRetryable
	}
	return p
}
