package jobs

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	cron "github.com/robfig/cron"
	"github.com/sirupsen/logrus"
)

// Job is a recurring task driven by the cron scheduler.
type Job interface {
	Name() string
	Schedule() string
	Run()
}

// TaskExecutor drives the housekeeping jobs on their cron schedules. A job
// still running when its next tick fires is skipped, not stacked.
type TaskExecutor struct {
	cron    *cron.Cron
	jobs    []Job
	running mapset.Set[string]
	mu      sync.Mutex
}

func NewTaskExecutor(jobs []Job) *TaskExecutor {
	return &TaskExecutor{
		cron:    cron.New(),
		jobs:    jobs,
		running: mapset.NewSet[string](),
	}
}

// Run registers every job with the cron and starts it. Each job runs in its
// own goroutine inside the cron.
func (t *TaskExecutor) Run() {
	for _, job := range t.jobs {
		job := job
		err := t.cron.AddFunc(job.Schedule(), func() {
			t.mu.Lock()
			if t.running.Contains(job.Name()) {
				t.mu.Unlock()
				logrus.Warnf("task %s is still running, skipping tick", job.Name())
				return
			}
			t.running.Add(job.Name())
			t.mu.Unlock()

			defer func() {
				t.mu.Lock()
				defer t.mu.Unlock()
				t.running.Remove(job.Name())
			}()

			job.Run()
		})

		if err != nil {
			logrus.Errorf("failed to add task %s to cron: %v", job.Name(), err)
			panic(err)
		}
	}

	t.cron.Start()
}

func (t *TaskExecutor) Stop() {
	logrus.Infof("stopping all tasks")
	t.cron.Stop()
}
