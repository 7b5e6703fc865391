package boundary

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/wait"
)

// DefaultBackoff bounds retries of transient boundary failures.
var DefaultBackoff = wait.Backoff{
	Duration: 500 * time.Millisecond,
	Factor:   2,
	Jitter:   0.1,
	Steps:    5,
	Cap:      15 * time.Second,
}

// Retry calls fn until it succeeds, returns a non-transient error, or the
// backoff is exhausted. Exhaustion is reported as a transient *Error that
// wraps the last failure.
func Retry(ctx context.Context, logger log.FieldLogger, backoff wait.Backoff, op string, fn func(context.Context) error) error {
	var (
		lastErr  error
		attempts int
	)
	err := wait.ExponentialBackoffWithContext(ctx, backoff, func(ctx context.Context) (bool, error) {
		attempts++
		lastErr = fn(ctx)
		if lastErr == nil {
			return true, nil
		}
		if !IsTransient(lastErr) {
			return false, lastErr
		}
		logger.WithError(lastErr).WithField("attempt", attempts).Debugf("%s failed, retrying", op)
		return false, nil
	})
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return Inconclusive(op, ctxErr)
	}
	if wait.Interrupted(err) && lastErr != nil {
		return Transient(op, fmt.Errorf("gave up after %d attempts: %w", attempts, lastErr))
	}
	return err
}
