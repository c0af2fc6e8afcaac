// Package jobs provides the scheduled background tasks of the delivery core.
//
// Jobs are cron based (github.com/robfig/cron/v3, six field expressions with seconds):
//
//  1. AutoAssignmentJob assigns the oldest unassigned shipments to the best ranked couriers
//  2. PresenceSweeperJob takes couriers offline once their heartbeat is older than the TTL
//  3. OutboxRelayJob publishes committed shipment events to the broker
//
// A run that is still in progress when the next tick fires is skipped, so a slow
// database never stacks runs on top of each other.
//
// # Usage
//
//	manager := jobs.NewJobManager(logger,
//		jobs.NewAutoAssignmentJob(autoAssign, "*/5 * * * * *", m, logger),
//		jobs.NewPresenceSweeperJob(sweep, cmd, "*/30 * * * * *", m, logger),
//	)
//	if err := manager.StartAll(); err != nil {
//		return err
//	}
//	defer manager.StopAll()
//
// # Error Handling
//
// Expected outcomes (nothing to assign, no courier free) are not logged as errors.
// Everything else is logged and left for the next run; jobs never retry inside a run.
package jobs
