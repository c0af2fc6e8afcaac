// Package services provides domain services that coordinate several aggregates:
//   - ShipmentLifecycle: executes lifecycle operations on shipment, order and payment together
//   - CourierDispatcher: filters and ranks couriers for automatic assignment
//
// Services hold no state besides policy; loading, locking and persisting the
// aggregates belongs to the application layer's unit of work.
package services
