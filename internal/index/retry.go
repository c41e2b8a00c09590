package index

import (
	"context"
	"time"

	"najah-search-go/pkg/log"
)

// retryWithBackoff retries op with bounded exponential backoff. Only errors
// accepted by retryable are retried; anything else returns immediately. The
// error of the final attempt is returned after the ceiling is reached.
func retryWithBackoff(ctx context.Context, op func() error, maxAttempts int, baseDelay time.Duration, retryable func(error) bool) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = op()
		if lastErr == nil {
			if attempt > 1 {
				log.Infof("[Index] operation succeeded on attempt %d", attempt)
			}
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}

		delay := baseDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
		}
		log.Warnf("[Index] transient failure on attempt %d/%d, retrying in %s: %v", attempt, maxAttempts, delay, lastErr)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
