package shared

import (
	"strings"
	"time"
)

// ChangeNotice is the change feed message broadcast to connected agents.
// It carries no entity data; receivers refetch.
type ChangeNotice struct {
	Type   string    `json:"type"`
	Entity string    `json:"entity"`
	Key    string    `json:"key"`
	At     time.Time `json:"at"`
}

// NewChangeNotice builds a notice from a domain event
func NewChangeNotice(event DomainEvent) ChangeNotice {
	return ChangeNotice{
		Type:   event.EventType(),
		Entity: EntityName(event.AggregateType()),
		Key:    event.AggregateID(),
		At:     event.OccurredAt(),
	}
}

// EntityName maps an aggregate type to its collection name
func EntityName(aggregateType string) string {
	switch aggregateType {
	case "Property":
		return "properties"
	case "":
		return ""
	default:
		return strings.ToLower(aggregateType) + "s"
	}
}
