// Package ports defines the contracts between the delivery core and its adapters:
// repositories bound to a unit of work, the outbox and the event publisher.
//
// Repositories report a missing aggregate as errs.ObjectNotFoundError and storage
// faults as errs.StorageUnavailableError. Methods named ...ForUpdate lock the row
// until the unit of work ends.
package ports
