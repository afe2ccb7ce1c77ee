package jobs

import (
	"context"
	"time"

	"github.com/betagouv/grist-core/internal/housekeeping"
	"github.com/sirupsen/logrus"
)

// TrashCollectJob runs the exclusive trash collection pass on a schedule.
type TrashCollectJob struct {
	keeper   *housekeeping.Housekeeper
	schedule string
}

func NewTrashCollectJob(keeper *housekeeping.Housekeeper, schedule string) *TrashCollectJob {
	return &TrashCollectJob{
		keeper:   keeper,
		schedule: schedule,
	}
}

func (j *TrashCollectJob) Name() string {
	return "trash_collect"
}

func (j *TrashCollectJob) Schedule() string {
	return j.schedule
}

func (j *TrashCollectJob) Run() {
	ran, err := j.keeper.RunTrashCollectionExclusively(context.Background(), time.Now())
	if err != nil {
		logrus.Errorf("trash collection pass failed: %v", err)
		return
	}
	if !ran {
		logrus.Info("trash collection skipped, another replica holds the lock")
	}
}
