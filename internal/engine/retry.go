package engine

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy bounds retries of an external call.
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxTries        uint
	MaxElapsed      time.Duration
}

// DefaultRetryPolicy is suitable for public profile APIs.
var DefaultRetryPolicy = RetryPolicy{
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
	MaxTries:        3,
	MaxElapsed:      30 * time.Second,
}

// Retry runs op with exponential backoff. op marks non-retryable failures
// with backoff.Permanent; everything else is retried until the policy runs out.
func Retry[T any](ctx context.Context, p RetryPolicy, op backoff.Operation[T]) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialInterval
	bo.MaxInterval = p.MaxInterval
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(p.MaxTries),
		backoff.WithMaxElapsedTime(p.MaxElapsed))
}

// HTTPStatusError reports an unexpected HTTP status.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return "http status " + http.StatusText(e.StatusCode)
}

// StatusError classifies a non-200 status: retryable statuses come back as
// a plain *HTTPStatusError, all others wrapped in backoff.Permanent.
func StatusError(code int) error {
	err := &HTTPStatusError{StatusCode: code}
	if IsRetryableStatus(code) {
		return err
	}
	return backoff.Permanent(err)
}

// IsRetryableStatus returns true for HTTP status codes worth retrying.
func IsRetryableStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}
