package jobs

import (
	"context"
	"errors"
	"log/slog"

	"quickdrop/internal/core/application/usecases/commands"
	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/shipment"
	"quickdrop/internal/metrics"
	"quickdrop/internal/pkg/errs"
)

// maxAssignmentsPerRun bounds one run so that a backlog cannot hold the tick forever.
const maxAssignmentsPerRun = 20

type AutoAssigner interface {
	Handle(ctx context.Context, cmd commands.AutoAssignNextCommand) (*shipment.Shipment, error)
}

// AutoAssignmentJob drains unassigned shipments oldest first until none is left or no
// courier is free.
type AutoAssignmentJob struct {
	scheduledJob
	handler AutoAssigner
	metrics *metrics.Metrics
}

func NewAutoAssignmentJob(handler AutoAssigner, schedule string, m *metrics.Metrics, logger *slog.Logger) *AutoAssignmentJob {
	j := &AutoAssignmentJob{handler: handler, metrics: m}
	j.scheduledJob = newScheduledJob("auto_assignment_job", schedule, logger, func(ctx context.Context) {
		j.RunOnce(ctx)
	})
	return j
}

// RunOnce returns how many shipments were assigned. A shipment that fails for any
// other reason than a missing courier is logged and passed over for the rest of the
// run, so one broken row cannot hold up the queue behind it.
func (j *AutoAssignmentJob) RunOnce(ctx context.Context) int {
	assigned := 0
	var skip []kernel.UUID
	for assigned < maxAssignmentsPerRun && len(skip) < maxAssignmentsPerRun {
		s, err := j.handler.Handle(ctx, commands.NewAutoAssignNextCommand(skip...))
		var failed *commands.ShipmentAssignmentError
		switch {
		case err == nil:
			assigned++
			j.metrics.AutoAssign.WithLabelValues(metrics.OutcomeAssigned).Inc()
			j.logger.InfoContext(ctx, "shipment assigned", "shipment_id", s.ID().String(), "courier_id", s.CourierID().String())
		case errors.Is(err, commands.ErrNoUnassignedShipment):
			j.metrics.AutoAssign.WithLabelValues(metrics.OutcomeNoShipment).Inc()
			return assigned
		case errors.Is(err, errs.ErrNoCourierAvailable):
			j.metrics.AutoAssign.WithLabelValues(metrics.OutcomeNoCourier).Inc()
			j.logger.DebugContext(ctx, "no courier available", "error", err)
			return assigned
		case errors.As(err, &failed):
			j.metrics.AutoAssign.WithLabelValues(metrics.OutcomeError).Inc()
			j.logger.ErrorContext(ctx, "auto assignment failed, skipping shipment",
				"shipment_id", failed.ShipmentID.String(), "error", err)
			skip = append(skip, failed.ShipmentID)
		default:
			j.metrics.AutoAssign.WithLabelValues(metrics.OutcomeError).Inc()
			j.logger.ErrorContext(ctx, "auto assignment failed", "error", err)
			return assigned
		}
	}
	return assigned
}
