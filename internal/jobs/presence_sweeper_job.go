package jobs

import (
	"context"
	"log/slog"

	"quickdrop/internal/core/application/usecases/commands"
	"quickdrop/internal/metrics"
)

type PresenceSweeper interface {
	Handle(ctx context.Context, cmd commands.SweepStalePresenceCommand) (int64, error)
}

type PresenceSweeperJob struct {
	scheduledJob
	handler PresenceSweeper
	cmd     commands.SweepStalePresenceCommand
	metrics *metrics.Metrics
}

func NewPresenceSweeperJob(
	handler PresenceSweeper,
	cmd commands.SweepStalePresenceCommand,
	schedule string,
	m *metrics.Metrics,
	logger *slog.Logger,
) *PresenceSweeperJob {
	j := &PresenceSweeperJob{handler: handler, cmd: cmd, metrics: m}
	j.scheduledJob = newScheduledJob("presence_sweeper_job", schedule, logger, func(ctx context.Context) {
		j.RunOnce(ctx)
	})
	return j
}

func (j *PresenceSweeperJob) RunOnce(ctx context.Context) int64 {
	swept, err := j.handler.Handle(ctx, j.cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "presence sweep failed", "error", err)
		return 0
	}
	if swept > 0 {
		j.metrics.StaleCouriers.Add(float64(swept))
		j.logger.InfoContext(ctx, "stale couriers marked offline", "count", swept, "ttl", j.cmd.TTL().String())
	}
	return swept
}
