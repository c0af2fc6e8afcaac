package jobs

import (
	"context"
	"log/slog"

	"quickdrop/internal/core/application/usecases/commands"
	"quickdrop/internal/metrics"
)

// maxBatchesPerRun bounds one relay run.
const maxBatchesPerRun = 10

type OutboxPublisher interface {
	Handle(ctx context.Context, cmd commands.PublishOutboxEventsCommand) (int, error)
}

// OutboxRelayJob publishes batches until the outbox is drained.
type OutboxRelayJob struct {
	scheduledJob
	handler OutboxPublisher
	cmd     commands.PublishOutboxEventsCommand
	metrics *metrics.Metrics
}

func NewOutboxRelayJob(
	handler OutboxPublisher,
	cmd commands.PublishOutboxEventsCommand,
	schedule string,
	m *metrics.Metrics,
	logger *slog.Logger,
) *OutboxRelayJob {
	j := &OutboxRelayJob{handler: handler, cmd: cmd, metrics: m}
	j.scheduledJob = newScheduledJob("outbox_relay_job", schedule, logger, func(ctx context.Context) {
		j.RunOnce(ctx)
	})
	return j
}

// RunOnce returns how many events were published.
func (j *OutboxRelayJob) RunOnce(ctx context.Context) int {
	total := 0
	for i := 0; i < maxBatchesPerRun; i++ {
		n, err := j.handler.Handle(ctx, j.cmd)
		if err != nil {
			j.metrics.OutboxPublishFailure.Inc()
			j.logger.ErrorContext(ctx, "outbox relay failed", "error", err, "published", total)
			return total
		}
		total += n
		j.metrics.OutboxPublished.Add(float64(n))
		if n < j.cmd.BatchSize() {
			break
		}
	}
	if total > 0 {
		j.logger.DebugContext(ctx, "outbox events published", "count", total)
	}
	return total
}
