package store

import (
	"context"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
)

// Poll refreshes the store every interval until ctx is cancelled. Failed
// cycles are not retried early; the next tick is the retry.
func (s *Store) Poll(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	s.logger.Info("periodic refresh started", "interval", interval)
	for retry.SleepWithContext(ctx, interval) {
		s.Refresh(ctx)
	}
	s.logger.Info("periodic refresh stopped")
}
