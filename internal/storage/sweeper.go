// Package storage holds helpers shared by the store backends.
package storage

import (
	"context"
	"time"

	"github.com/dtroode/shopwise-auth/internal/logger"
)

// Sweeper removes expired records.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// RunSweeper calls s.Sweep every interval until ctx is done. A non-positive
// interval disables sweeping.
func RunSweeper(ctx context.Context, s Sweeper, interval time.Duration, logger *logger.Logger) {
	if interval <= 0 {
		logger.Warn("Sweeper: disabled, interval is not positive", "interval", interval.String())
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.Sweep(ctx)
			if err != nil {
				logger.Error("Sweeper: failed to remove expired verification codes", "error", err.Error())
				continue
			}
			if removed > 0 {
				logger.Debug("Sweeper: removed expired verification codes", "count", removed)
			}
		}
	}
}
