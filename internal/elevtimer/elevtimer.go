package elevtimer

import (
	"context"
	"time"
)

// Sleep waits for duration or until ctx is done. It returns ctx.Err() when the
// wait was cut short, so callers can tell cancellation apart from failure.
func Sleep(ctx context.Context, duration time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if duration <= 0 {
		return nil
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
