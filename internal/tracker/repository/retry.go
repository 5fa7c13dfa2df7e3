package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/lib/pq"
)

// retryableSQLState holds the Postgres error codes worth retrying:
// serialization_failure and deadlock_detected. Everything else is
// surfaced to the caller on first occurrence.
var retryableSQLState = map[pq.ErrorCode]bool{
	"40001": true,
	"40P01": true,
}

func isRetryable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && retryableSQLState[pqErr.Code]
}

// withRetry runs op, retrying transient persistence contention a small
// bounded number of times with exponential backoff. Non-transient
// errors abort immediately.
func withRetry(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxInterval = 250 * time.Millisecond

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if isRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(bo, 3), ctx))
}
