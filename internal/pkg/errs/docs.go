// Package errs provides the closed error taxonomy of the delivery core.
//
// Every kind follows the same shape:
//   - a sentinel error variable used with errors.Is (e.g. ErrInvalidTransition)
//   - a struct carrying structured context (entity, id, current status, ...)
//   - constructor functions with and without cause
//   - an Error() method that renders a human readable message
//   - an Unwrap() method returning the sentinel
//
// Kinds:
//   - ObjectNotFoundError: a referenced entity is absent
//   - ValueIsRequiredError, ValueIsInvalidError, ValueIsOutOfRangeError: malformed input
//   - InvalidTransitionError: the current state forbids the requested operation
//   - NotAssignedToActorError: the actor is not the party associated with the entity
//   - CourierUnavailableError, NoCourierAvailableError: assignment specific failures
//   - StorageUnavailableError: the entity store could not be reached
//
// Transport adapters classify errors with errors.Is against the sentinels only.
package errs
