package connection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffSequence(t *testing.T) {
	b := NewBackoffWithConfig(BackoffConfig{
		Initial: 10 * time.Millisecond,
		Max:     50 * time.Millisecond,
		Jitter:  -1,
	})

	var got []time.Duration
	for range 5 {
		got = append(got, b.Next())
	}
	assert.Equal(t, []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		40 * time.Millisecond,
		50 * time.Millisecond,
		50 * time.Millisecond,
	}, got)
	assert.Equal(t, 5, b.Attempts())

	b.Reset()
	assert.Equal(t, 0, b.Attempts())
	assert.Equal(t, 10*time.Millisecond, b.Current())
}

func TestBackoffJitterBounds(t *testing.T) {
	b := NewBackoffWithConfig(BackoffConfig{Initial: 100 * time.Millisecond, Jitter: 0.25})
	for range 20 {
		b.Reset()
		d := b.Next()
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 125*time.Millisecond)
	}
}

func TestBackoffDefaults(t *testing.T) {
	b := NewBackoff()
	assert.Equal(t, InitialBackoff, b.Current())

	b = NewBackoffWithConfig(BackoffConfig{Initial: time.Minute, Max: time.Second})
	b.Next()
	assert.Equal(t, time.Minute, b.Current())
}

func fastBackoff() *Backoff {
	return NewBackoffWithConfig(BackoffConfig{Initial: time.Millisecond, Max: 2 * time.Millisecond, Jitter: -1})
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	var retries []int
	v, err := Retry(context.Background(), RetryConfig{
		Attempts: 5,
		Backoff:  fastBackoff(),
		OnRetry:  func(attempt int, _ time.Duration, _ error) { retries = append(retries, attempt) },
	}, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("refused")
		}
		return "conn", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "conn", v)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestRetryExhausted(t *testing.T) {
	refused := errors.New("refused")
	calls := 0
	_, err := Retry(context.Background(), RetryConfig{Attempts: 3, Backoff: fastBackoff()},
		func(context.Context) (int, error) {
			calls++
			return 0, refused
		})

	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.ErrorIs(t, err, refused)
	assert.Equal(t, 3, calls)
}

func TestRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, err := Retry(ctx, RetryConfig{
		Backoff: NewBackoffWithConfig(BackoffConfig{Initial: time.Hour}),
		OnRetry: func(int, time.Duration, error) { cancel() },
	}, func(context.Context) (int, error) {
		return 0, errors.New("refused")
	})
	assert.ErrorIs(t, err, context.Canceled)
}
