package redmine

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// DefaultMaxAttempts is the number of tries per tracker call, the first
// one included.
const DefaultMaxAttempts = 7

// RetryPolicy bounds the retries of a tracker call.
type RetryPolicy struct {
	MaxAttempts int
	// StatusCodes are the HTTP statuses treated as transient.
	StatusCodes []int
	// NewBackOff returns a fresh backoff for one call. BackOff
	// implementations are stateful and must not be shared between calls.
	NewBackOff func() backoff.BackOff
}

// DefaultRetryPolicy retries rate limiting and gateway errors up to seven
// attempts with exponential backoff starting at two seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		StatusCodes: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
		NewBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = 2 * time.Second
			bo.Multiplier = 2
			bo.MaxInterval = 2 * time.Minute
			bo.MaxElapsedTime = 0 // bounded by MaxAttempts instead
			return bo
		},
	}
}

// Retryable reports whether an HTTP status is worth another attempt.
func (p RetryPolicy) Retryable(status int) bool {
	for _, code := range p.StatusCodes {
		if code == status {
			return true
		}
	}
	return false
}

// Do runs op until it succeeds, returns a permanent error, or the attempts
// are used up. The last error is returned unwrapped.
func (p RetryPolicy) Do(ctx context.Context, log *zap.SugaredLogger, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	newBackOff := p.NewBackOff
	if newBackOff == nil {
		newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), uint64(attempts-1)), ctx)
	return backoff.RetryNotify(op, bo, func(err error, wait time.Duration) {
		if log != nil {
			log.Debugw("retrying tracker request", "error", err, "wait", wait)
		}
	})
}

func permanent(err error) error {
	return backoff.Permanent(err)
}
