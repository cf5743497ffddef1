package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// callPolicy bounds every external call: one attempt plus at most one retry,
// each attempt limited by timeout.
type callPolicy struct {
	timeout time.Duration
	backoff time.Duration
}

func newCallPolicy(timeout, backoff time.Duration) callPolicy {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	return callPolicy{timeout: timeout, backoff: backoff}
}

func (p callPolicy) do(ctx context.Context, attempt func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(1, retry.NewConstant(p.backoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		err := attempt(attemptCtx)
		if err == nil {
			return nil
		}
		if isTransient(err) && ctx.Err() == nil {
			return retry.RetryableError(err)
		}
		return err
	})
}

// statusError is returned for non-2xx responses.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.code, e.body)
}

func isTransient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= http.StatusInternalServerError || se.code == http.StatusTooManyRequests
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
