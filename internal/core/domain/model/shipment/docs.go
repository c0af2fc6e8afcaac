// Package shipment holds the Shipment aggregate and the lifecycle transition table.
//
// The table maps every (status, operation) pair either to a next status or to an
// invalid transition; it is walked exhaustively by the package tests. Transitions
// record domain events that the unit of work writes to the outbox on commit.
package shipment
