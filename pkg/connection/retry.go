package connection

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrAttemptsExhausted wraps the last failure once the attempt budget is spent.
var ErrAttemptsExhausted = errors.New("connection attempts exhausted")

// RetryConfig bounds Retry.
type RetryConfig struct {
	// Attempts is the maximum number of calls; 0 retries until ctx ends.
	Attempts int

	// Backoff supplies the delays; nil uses NewBackoff().
	Backoff *Backoff

	// OnRetry is called after each failed attempt that will be retried.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Retry calls connect until it succeeds. The backoff is reset on success.
func Retry[T any](ctx context.Context, cfg RetryConfig, connect func(context.Context) (T, error)) (T, error) {
	b := cfg.Backoff
	if b == nil {
		b = NewBackoff()
	}

	var zero T
	for attempt := 1; ; attempt++ {
		v, err := connect(ctx)
		if err == nil {
			b.Reset()
			return v, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if cfg.Attempts > 0 && attempt >= cfg.Attempts {
			return zero, fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, attempt, err)
		}

		delay := b.Next()
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}
