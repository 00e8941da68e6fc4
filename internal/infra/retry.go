package infra

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	connectAttempts = 5
	connectBackoff  = 200 * time.Millisecond
)

// pingWithRetry calls ping until it succeeds or the attempts run out, backing
// off exponentially. Containers often start before their database is ready.
func pingWithRetry(ctx context.Context, ping func(context.Context) error) error {
	backoff := retry.WithMaxRetries(connectAttempts-1, retry.NewExponential(connectBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
