package property

import (
	"github.com/staydesk/backend/internal/domain/shared"
)

// AggregateTypeProperty is the aggregate type for property events
const AggregateTypeProperty = "Property"

// Event type constants
const (
	EventTypePropertySaved   = "PropertySaved"
	EventTypePropertyDeleted = "PropertyDeleted"
)

// PropertySavedEvent is published when a property is created or edited
type PropertySavedEvent struct {
	shared.BaseDomainEvent
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// NewPropertySavedEvent creates a PropertySavedEvent
func NewPropertySavedEvent(p *Property) *PropertySavedEvent {
	return &PropertySavedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePropertySaved, AggregateTypeProperty, p.ID.String()),
		Name:            p.Name,
		Active:          p.Active,
	}
}

// PropertyDeletedEvent is published when a property is removed
type PropertyDeletedEvent struct {
	shared.BaseDomainEvent
}

// NewPropertyDeletedEvent creates a PropertyDeletedEvent
func NewPropertyDeletedEvent(p *Property) *PropertyDeletedEvent {
	return &PropertyDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePropertyDeleted, AggregateTypeProperty, p.ID.String()),
	}
}
