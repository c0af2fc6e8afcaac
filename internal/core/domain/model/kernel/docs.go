// Package kernel provides the shared value objects of the delivery domain:
//   - UUID: aggregate identifiers
//   - GeoPoint and Address: pickup, destination and courier positions
//   - Money: order totals in minor units
//   - DomainEvent and EventRecorder: facts recorded by aggregate transitions
//
// Value objects are immutable and must be created through their constructors;
// a zero value fails Validate.
package kernel
