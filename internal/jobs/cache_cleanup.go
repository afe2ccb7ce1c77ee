package jobs

import (
	"context"
	"time"

	"github.com/betagouv/grist-core/internal/housekeeping"
	"github.com/sirupsen/logrus"
)

// CacheCleanupJob evicts stale cached document copies on a schedule.
type CacheCleanupJob struct {
	keeper   *housekeeping.Housekeeper
	schedule string
}

func NewCacheCleanupJob(keeper *housekeeping.Housekeeper, schedule string) *CacheCleanupJob {
	return &CacheCleanupJob{
		keeper:   keeper,
		schedule: schedule,
	}
}

func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

func (j *CacheCleanupJob) Schedule() string {
	return j.schedule
}

func (j *CacheCleanupJob) Run() {
	evicted, err := j.keeper.RunCacheCleanup(context.Background(), time.Now())
	if err != nil {
		logrus.Errorf("cache cleanup pass failed: %v", err)
		return
	}
	if evicted > 0 {
		logrus.Infof("cache cleanup evicted %d cached copies", evicted)
	}
}
