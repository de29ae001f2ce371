// Package probe provides a bounded-retry combinator for network probes.
package probe

import (
	"context"
	"fmt"
	"time"
)

// Retry runs fn up to attempts times. Each attempt is bounded by
// perAttempt; between failed attempts Retry waits backoff. It returns
// nil as soon as one attempt succeeds, the last attempt's error when
// all fail, or the context error if cancelled while waiting.
func Retry(ctx context.Context, attempts int, perAttempt, backoff time.Duration, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, perAttempt)
		err := fn(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		lastErr = err

		// No wait after the final attempt
		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", attempts, lastErr)
}
