package booking

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/staydesk/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeReservation = "Reservation"
	AggregateTypePayment     = "Payment"
)

// Event type constants
const (
	EventTypeReservationCreated       = "ReservationCreated"
	EventTypeReservationUpdated       = "ReservationUpdated"
	EventTypeReservationStatusChanged = "ReservationStatusChanged"
	EventTypeReservationDeleted       = "ReservationDeleted"
	EventTypePaymentRecorded          = "PaymentRecorded"
	EventTypePaymentDeleted           = "PaymentDeleted"
)

// ReservationCreatedEvent is published when a reservation is booked
type ReservationCreatedEvent struct {
	shared.BaseDomainEvent
	PropertyID uuid.UUID       `json:"property_id"`
	GuestName  string          `json:"guest_name"`
	Total      decimal.Decimal `json:"total"`
}

// NewReservationCreatedEvent creates a ReservationCreatedEvent
func NewReservationCreatedEvent(r *Reservation) *ReservationCreatedEvent {
	return &ReservationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReservationCreated, AggregateTypeReservation, r.BookingID),
		PropertyID:      r.PropertyID,
		GuestName:       r.GuestName,
		Total:           r.TotalAmount,
	}
}

// ReservationUpdatedEvent is published when guest, stay or amount details change
type ReservationUpdatedEvent struct {
	shared.BaseDomainEvent
}

// NewReservationUpdatedEvent creates a ReservationUpdatedEvent
func NewReservationUpdatedEvent(r *Reservation) *ReservationUpdatedEvent {
	return &ReservationUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReservationUpdated, AggregateTypeReservation, r.BookingID),
	}
}

// ReservationStatusChangedEvent is published on every lifecycle transition
type ReservationStatusChangedEvent struct {
	shared.BaseDomainEvent
	From Status `json:"from"`
	To   Status `json:"to"`
}

// NewReservationStatusChangedEvent creates a ReservationStatusChangedEvent
func NewReservationStatusChangedEvent(r *Reservation, from Status) *ReservationStatusChangedEvent {
	return &ReservationStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReservationStatusChanged, AggregateTypeReservation, r.BookingID),
		From:            from,
		To:              r.Status,
	}
}

// ReservationDeletedEvent is published when a reservation is removed
type ReservationDeletedEvent struct {
	shared.BaseDomainEvent
}

// NewReservationDeletedEvent creates a ReservationDeletedEvent
func NewReservationDeletedEvent(r *Reservation) *ReservationDeletedEvent {
	return &ReservationDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReservationDeleted, AggregateTypeReservation, r.BookingID),
	}
}

// PaymentRecordedEvent is published when money is received against a booking
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	BookingID string          `json:"booking_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
}

// NewPaymentRecordedEvent creates a PaymentRecordedEvent
func NewPaymentRecordedEvent(p *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypePayment, p.ID.String()),
		BookingID:       p.BookingID,
		Amount:          p.Amount,
		Method:          p.Method,
	}
}

// PaymentDeletedEvent is published when a payment entry is removed
type PaymentDeletedEvent struct {
	shared.BaseDomainEvent
	BookingID string `json:"booking_id"`
}

// NewPaymentDeletedEvent creates a PaymentDeletedEvent
func NewPaymentDeletedEvent(p *Payment) *PaymentDeletedEvent {
	return &PaymentDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentDeleted, AggregateTypePayment, p.ID.String()),
		BookingID:       p.BookingID,
	}
}
