package verifier

import (
	"context"
	"time"
)

// Sleeper waits out a simulated processing delay.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep suspends the calling goroutine for d or until ctx is done. It holds no
// lock, so concurrent verifications overlap instead of queueing.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
