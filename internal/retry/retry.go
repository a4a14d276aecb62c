// Package retry implements a bounded constant-interval retry policy.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ligouras/locize-backup-docker/internal/logger"
)

// AttemptFunc performs one attempt of the operation.
type AttemptFunc func() error

// IsRetryableFunc decides whether a failed attempt is worth repeating.
type IsRetryableFunc func(err error) bool

// Do runs attempt until it succeeds, up to maxAttempts times, sleeping
// delay between attempts. Errors rejected by isRetryable stop the loop
// immediately, as does cancellation of ctx. The last error is returned.
func Do(
	ctx context.Context,
	desc string,
	maxAttempts int,
	delay time.Duration,
	attempt AttemptFunc,
	isRetryable IsRetryableFunc,
) error {
	log := logger.Global()

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(maxAttempts-1)),
		ctx,
	)

	n := 0
	return backoff.Retry(func() error {
		n++
		err := attempt()
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return backoff.Permanent(err)
		}
		if n < maxAttempts {
			log.Debug("attempt failed, retrying",
				"operation", desc,
				"attempt", n,
				"max_attempts", maxAttempts,
				"delay", delay.String(),
				"error", err.Error(),
			)
		}
		return err
	}, policy)
}

// Always treats every failure as retryable except cancellation of the
// run itself.
func Always(err error) bool {
	return !errors.Is(err, context.Canceled)
}
