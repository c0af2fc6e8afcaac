package kernel

import "time"

// DomainEvent is a fact recorded by an aggregate during a transition. The unit of work
// writes pending events to the outbox in the same transaction as the aggregate itself.
type DomainEvent struct {
	id          UUID
	aggregateID UUID
	name        string
	occurredAt  time.Time
	payload     map[string]any
}

func NewDomainEvent(aggregateID UUID, name string, occurredAt time.Time, payload map[string]any) DomainEvent {
	return DomainEvent{
		id:          NewUUID(),
		aggregateID: aggregateID,
		name:        name,
		occurredAt:  occurredAt,
		payload:     payload,
	}
}

func (e DomainEvent) ID() UUID                { return e.id }
func (e DomainEvent) AggregateID() UUID       { return e.aggregateID }
func (e DomainEvent) Name() string            { return e.name }
func (e DomainEvent) OccurredAt() time.Time   { return e.occurredAt }
func (e DomainEvent) Payload() map[string]any { return e.payload }

// EventRecorder is embedded by aggregates that emit domain events.
type EventRecorder struct {
	events []DomainEvent
}

func (r *EventRecorder) Record(event DomainEvent) {
	r.events = append(r.events, event)
}

// DomainEvents returns the events recorded since the last ClearDomainEvents.
func (r *EventRecorder) DomainEvents() []DomainEvent {
	out := make([]DomainEvent, len(r.events))
	copy(out, r.events)
	return out
}

func (r *EventRecorder) ClearDomainEvents() {
	r.events = nil
}
