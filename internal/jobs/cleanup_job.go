package jobs

import (
	"time"

	"go.uber.org/zap"
)

// CleanupJobName is the name of the expired-record cleanup job
const CleanupJobName = "store_cleanup"

// Sweeper removes expired records and reports how many were dropped.
// The in-memory OTP and draft stores implement it; the Redis-backed
// stores expire keys natively and register no sweeper.
type Sweeper interface {
	Sweep(now time.Time) int
}

// CleanupJob sweeps expired OTP records and stale quote drafts out of
// the in-memory stores.
type CleanupJob struct {
	sweepers map[string]Sweeper
	logger   *zap.Logger
}

// NewCleanupJob creates a cleanup job over the given named sweepers.
func NewCleanupJob(sweepers map[string]Sweeper, logger *zap.Logger) *CleanupJob {
	return &CleanupJob{
		sweepers: sweepers,
		logger:   logger,
	}
}

// Run executes one sweep across all registered stores.
func (j *CleanupJob) Run() {
	now := time.Now()
	for name, sweeper := range j.sweepers {
		removed := sweeper.Sweep(now)
		if removed > 0 {
			j.logger.Info("swept expired records",
				zap.String("store", name),
				zap.Int("removed", removed))
		}
	}
}
