// Package courier holds the Courier aggregate: identity, dispatcher controlled status,
// heartbeat driven presence and the running customer rating.
//
// Eligibility rules:
//   - manual assignment: status active and below the active shipment cap
//   - automatic assignment: additionally online and verified
//
// Changing the status to banned or offshift only affects future assignments.
package courier
