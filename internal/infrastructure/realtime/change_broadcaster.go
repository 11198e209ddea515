package realtime

import (
	"context"

	"github.com/staydesk/backend/internal/domain/shared"
)

// ChangeBroadcaster is an event handler that turns every domain event into a feed notice
type ChangeBroadcaster struct {
	hub *Hub
}

// NewChangeBroadcaster creates a ChangeBroadcaster for the hub
func NewChangeBroadcaster(hub *Hub) *ChangeBroadcaster {
	return &ChangeBroadcaster{hub: hub}
}

// Handle broadcasts the event's change notice
func (b *ChangeBroadcaster) Handle(ctx context.Context, event shared.DomainEvent) error {
	b.hub.Broadcast(ctx, shared.NewChangeNotice(event))
	return nil
}

// EventTypes returns nil to receive every event
func (b *ChangeBroadcaster) EventTypes() []string {
	return nil
}

var _ shared.EventHandler = (*ChangeBroadcaster)(nil)
