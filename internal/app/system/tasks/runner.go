// internal/app/system/tasks/runner.go
package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a unit of periodic background work.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Runner runs each job on its own ticker until stopped.
type Runner struct {
	jobs    []Job
	log     *zap.Logger
	timeout time.Duration
	stopCh  chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewRunner creates a runner for jobs. Each run gets timeout to finish.
func NewRunner(logger *zap.Logger, timeout time.Duration, jobs ...Job) *Runner {
	return &Runner{
		jobs:    jobs,
		log:     logger,
		timeout: timeout,
		stopCh:  make(chan struct{}),
	}
}

// Start launches one goroutine per job. Jobs with a non-positive interval
// are skipped.
func (r *Runner) Start() {
	for _, j := range r.jobs {
		if j.Interval <= 0 {
			r.log.Warn("background job skipped: no interval", zap.String("job", j.Name))
			continue
		}
		r.wg.Add(1)
		go r.loop(j)
		r.log.Info("background job started",
			zap.String("job", j.Name),
			zap.Duration("interval", j.Interval))
	}
}

// Stop signals every job to stop and waits for running work to finish.
// It is safe to call more than once.
func (r *Runner) Stop() {
	r.once.Do(func() {
		close(r.stopCh)
		r.wg.Wait()
		r.log.Info("background jobs stopped")
	})
}

func (r *Runner) loop(j Job) {
	defer r.wg.Done()

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.runOnce(j)
		}
	}
}

func (r *Runner) runOnce(j Job) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := j.Run(ctx); err != nil {
		r.log.Error("background job failed", zap.String("job", j.Name), zap.Error(err))
	}
}
