package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is something that happened to a reservation, payment or
// property. Aggregate ids are strings because reservations are keyed by
// booking id rather than uuid.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() string
	AggregateType() string
}

// BaseDomainEvent carries the metadata every event embeds. It is excluded
// from the event's JSON; transports put it in their own envelope.
type BaseDomainEvent struct {
	id        uuid.UUID
	eventType string
	at        time.Time
	aggType   string
	aggID     string
}

// NewBaseDomainEvent stamps a new event id and the current UTC time
func NewBaseDomainEvent(eventType, aggType, aggID string) BaseDomainEvent {
	return BaseDomainEvent{
		id:        uuid.New(),
		eventType: eventType,
		at:        time.Now().UTC(),
		aggType:   aggType,
		aggID:     aggID,
	}
}

func (e BaseDomainEvent) EventID() uuid.UUID { return e.id }
func (e BaseDomainEvent) EventType() string { return e.eventType }
func (e BaseDomainEvent) OccurredAt() time.Time { return e.at }
func (e BaseDomainEvent) AggregateID() string { return e.aggID }
func (e BaseDomainEvent) AggregateType() string { return e.aggType }
