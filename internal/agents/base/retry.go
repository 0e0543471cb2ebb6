// internal/agents/base/retry.go
package base

import (
	"context"
	"time"

	apperrors "travel-concierge/internal/common/errors"
)

// ExecuteWithRetry runs op at most p.MaxAttempts times. Only retryable failures
// (rate limits, server errors, parse failures) earn another attempt; the last error is
// returned when the budget is spent. The returned count is the number of attempts made.
func ExecuteWithRetry[T any](ctx context.Context, p Policy, op func(ctx context.Context, attempt int) (T, error)) (T, int, error) {
	var (
		zero    T
		lastErr error
	)
	p = p.withDefaults()

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if wait := p.Backoff(attempt); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, attempt - 1, ctx.Err()
			case <-timer.C:
			}
		}

		result, err := op(ctx, attempt)
		if err == nil {
			return result, attempt, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, attempt, ctx.Err()
		}
		if !apperrors.IsRetryable(err) {
			return zero, attempt, err
		}
	}
	return zero, p.MaxAttempts, lastErr
}
