package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Second, time.Second, func(context.Context) error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryStopsOnFirstSuccess(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 5, time.Second, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	sentinel := errors.New("permanent")
	calls := 0

	err := Retry(context.Background(), 3, time.Second, time.Millisecond, func(context.Context) error {
		calls++
		return sentinel
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, calls)
}

func TestRetryWaitsBackoffBetweenAttempts(t *testing.T) {
	backoff := 40 * time.Millisecond
	start := time.Now()

	_ = Retry(context.Background(), 3, time.Second, backoff, func(context.Context) error {
		return errors.New("nope")
	})

	assert.GreaterOrEqual(t, time.Since(start), 2*backoff)
}

func TestRetryPerAttemptTimeout(t *testing.T) {
	err := Retry(context.Background(), 2, 10*time.Millisecond, time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryCancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Retry(ctx, 3, time.Second, time.Hour, func(context.Context) error {
			return errors.New("fail")
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("retry did not observe cancellation while backing off")
	}
}

func TestRetryZeroAttemptsTreatedAsOne(t *testing.T) {
	calls := 0
	_ = Retry(context.Background(), 0, time.Second, time.Millisecond, func(context.Context) error {
		calls++
		return errors.New("fail")
	})

	assert.Equal(t, 1, calls)
}
