// Package retry runs an operation with bounded exponential backoff.
//
// Example:
//
//	b := retry.Backoff{MaxAttempts: 5, BaseDelay: time.Second}
//	err := b.Run(ctx, func() error { return session.Open() })
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted marks an error returned after the final failed attempt.
// Detect it with errors.Is; the last attempt's error stays in the chain.
var ErrExhausted = errors.New("retry: attempts exhausted")

// Backoff retries an operation with delays of BaseDelay, 2*BaseDelay,
// 4*BaseDelay, ... between attempts. No jitter: a single reconnecting client
// needs no herd protection.
type Backoff struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// Sleep replaces time.Sleep when set. Tests inject it to observe delays
	// without waiting on the wall clock.
	Sleep func(time.Duration)

	// OnRetry is called after each failed attempt that will be retried.
	OnRetry func(attempt int, err error)
}

// Run invokes fn until it succeeds, the attempt budget is spent, or ctx is
// canceled. The first successful attempt returns immediately; the final
// failure is wrapped with ErrExhausted.
func (b Backoff) Run(ctx context.Context, fn func() error) error {
	attempts := b.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := b.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	delay := b.BaseDelay
	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if last = fn(); last == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		if b.OnRetry != nil {
			b.OnRetry(attempt, last)
		}
		sleep(delay)
		delay *= 2
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, last)
}
