package service

import (
	"context"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"
)

// RatingSyncRetrier periodically pushes the ratings the profile aggregate did not acknowledge.
type RatingSyncRetrier struct {
	completion *CompletionService
	interval   time.Duration
	batchSize  int
}

func NewRatingSyncRetrier(completion *CompletionService, interval time.Duration, batchSize int) *RatingSyncRetrier {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &RatingSyncRetrier{
		completion: completion,
		interval:   interval,
		batchSize:  batchSize,
	}
}

func (r *RatingSyncRetrier) Run(ctx context.Context) error {
	logger := zap.S().Named("rating_sync_retrier")
	logger.Infof("retrying pending ratings every %s", r.interval)

	ticker := jitterbug.New(r.interval, &jitterbug.Norm{Stdev: r.interval / 10})
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("rating sync retrier stopped")
			return nil
		case <-ticker.C:
		}

		for {
			synced, err := r.completion.SyncPending(ctx, r.batchSize)
			if err != nil {
				logger.Errorw("failed to drain pending ratings", "error", err)
				break
			}
			if synced > 0 {
				logger.Infow("pending ratings synced", "count", synced)
			}
			// a partially synced batch means the profile side is failing, wait for the next tick
			if synced < r.batchSize {
				break
			}
		}
	}
}
