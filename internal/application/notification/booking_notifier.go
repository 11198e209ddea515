package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/staydesk/backend/internal/domain/booking"
	"github.com/staydesk/backend/internal/domain/identity"
	"github.com/staydesk/backend/internal/domain/notification"
	"github.com/staydesk/backend/internal/domain/shared"
	"github.com/staydesk/backend/internal/domain/shared/valueobject"
)

// Relayer is the part of RelayService the notifier needs
type Relayer interface {
	Relay(ctx context.Context, req RelayRequest) (*notification.RelayReport, error)
}

// BookingNotifier pushes new reservations and received payments to staff
// devices. It is an event handler on the domain event bus.
type BookingNotifier struct {
	relay  Relayer
	roles  []identity.Role
	logger *zap.Logger
}

// NewBookingNotifier creates a BookingNotifier targeting admins and staff
func NewBookingNotifier(relay Relayer, logger *zap.Logger) *BookingNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingNotifier{
		relay:  relay,
		roles:  []identity.Role{identity.RoleAdmin, identity.RoleStaff},
		logger: logger,
	}
}

// EventTypes implements shared.EventHandler
func (n *BookingNotifier) EventTypes() []string {
	return []string{booking.EventTypeReservationCreated, booking.EventTypePaymentRecorded}
}

// Handle implements shared.EventHandler. Delivery problems are logged and
// never fail the publishing write.
func (n *BookingNotifier) Handle(ctx context.Context, event shared.DomainEvent) error {
	req, ok := n.requestFor(event)
	if !ok {
		return nil
	}
	if _, err := n.relay.Relay(ctx, req); err != nil {
		n.logger.Warn("Booking push notification failed",
			zap.String("event_type", event.EventType()),
			zap.String("aggregate_id", event.AggregateID()),
			zap.Error(err))
	}
	return nil
}

func (n *BookingNotifier) requestFor(event shared.DomainEvent) (RelayRequest, bool) {
	filter := notification.SubscriptionFilter{Roles: n.roles}
	switch e := event.(type) {
	case *booking.ReservationCreatedEvent:
		return RelayRequest{
			Filters:          filter,
			NotificationType: notification.TypeNewReservation,
			Payload: notification.Payload{
				Title: "New reservation",
				Body:  e.GuestName + " · " + valueobject.FormatINR(e.Total, false),
				URL:   "/reservations/" + e.AggregateID(),
				Data:  map[string]string{"booking_id": e.AggregateID()},
			},
		}, true
	case *booking.PaymentRecordedEvent:
		return RelayRequest{
			Filters:          filter,
			NotificationType: notification.TypePaymentReceived,
			Payload: notification.Payload{
				Title: "Payment received",
				Body:  valueobject.FormatINR(e.Amount, false) + " for " + e.BookingID + " via " + string(e.Method),
				URL:   "/reservations/" + e.BookingID,
				Data:  map[string]string{"booking_id": e.BookingID},
			},
		}, true
	}
	return RelayRequest{}, false
}

var _ shared.EventHandler = (*BookingNotifier)(nil)
