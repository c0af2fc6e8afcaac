package shipment

// Event names recorded on successful transitions.
const (
	EventAssigned  = "shipment.assigned"
	EventPickedUp  = "shipment.picked_up"
	EventInTransit = "shipment.in_transit"
	EventDelivered = "shipment.delivered"
	EventFailed    = "shipment.failed"
	EventCancelled = "shipment.cancelled"
)

var eventByOperation = map[Operation]string{
	OpAssign:           EventAssigned,
	OpConfirmPickup:    EventPickedUp,
	OpStartDelivery:    EventInTransit,
	OpCompleteDelivery: EventDelivered,
	OpFail:             EventFailed,
	OpCancel:           EventCancelled,
}
