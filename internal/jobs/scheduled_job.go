package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const runTimeout = 30 * time.Second

// scheduledJob runs one function on a cron schedule.
type scheduledJob struct {
	name     string
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
	run      func(ctx context.Context)
}

func newScheduledJob(name, schedule string, logger *slog.Logger, run func(ctx context.Context)) scheduledJob {
	return scheduledJob{
		name:     name,
		schedule: schedule,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger: logger.With("component", name),
		run:    run,
	}
}

func (j *scheduledJob) Name() string {
	return j.name
}

func (j *scheduledJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		j.run(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", j.schedule, err)
	}

	j.cron.Start()
	j.logger.Info("job started", "schedule", j.schedule)
	return nil
}

// Stop waits for a run in progress to finish.
func (j *scheduledJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("job stopped")
}
