// Package order holds the Order aggregate. An order's status mirrors its shipment's
// lifecycle stage, with cancelled distinguishing a cancellation from a failure.
package order
