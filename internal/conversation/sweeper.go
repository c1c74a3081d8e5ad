package conversation

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const DefaultSweepInterval = 5 * time.Minute

// StartSweeper periodically purges expired contexts until ctx is cancelled.
// TTL expiry is the only cleanup for sessions that are never completed or
// abandoned explicitly.
func StartSweeper(ctx context.Context, sweeper Sweeper, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	done := make(chan struct{})
	ticker := time.NewTicker(interval)

	go func() {
		defer close(done)
		defer ticker.Stop()
		logger.Info("context sweeper started", zap.Duration("interval", interval))

		for {
			select {
			case <-ticker.C:
				removed, err := sweeper.Sweep(ctx)
				if err != nil {
					logger.Warn("context sweep failed", zap.Error(err))
					continue
				}
				if removed > 0 {
					logger.Info("expired contexts removed", zap.Int64("count", removed))
				}
			case <-ctx.Done():
				logger.Info("context sweeper shutting down", zap.Error(ctx.Err()))
				return
			}
		}
	}()

	return done
}
