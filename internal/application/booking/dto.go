package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/staydesk/backend/internal/domain/booking"
)

// GuestInput carries guest identity fields
type GuestInput struct {
	Name     string `json:"guest_name" binding:"required,max=200"`
	Email    string `json:"guest_email" binding:"omitempty,email"`
	Phone    string `json:"guest_phone" binding:"omitempty,max=25"`
	Adults   int    `json:"adults" binding:"required,min=1"`
	Children int    `json:"children" binding:"min=0"`
}

func (g GuestInput) toDomain() booking.Guest {
	return booking.Guest{
		Name:     g.Name,
		Email:    g.Email,
		Phone:    g.Phone,
		Adults:   g.Adults,
		Children: g.Children,
	}
}

// CreateReservationRequest is the input for booking a stay. The booking id
// is always generated.
type CreateReservationRequest struct {
	GuestInput
	PropertyID  uuid.UUID       `json:"property_id" binding:"required"`
	CheckIn     string          `json:"check_in" binding:"required,calendar_date"`
	CheckOut    string          `json:"check_out" binding:"required,calendar_date"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Source      booking.Source  `json:"source"`
	Notes       string          `json:"notes" binding:"max=2000"`
}

// UpdateReservationRequest replaces the editable fields of a reservation
type UpdateReservationRequest struct {
	GuestInput
	PropertyID  uuid.UUID       `json:"property_id" binding:"required"`
	CheckIn     string          `json:"check_in" binding:"required,calendar_date"`
	CheckOut    string          `json:"check_out" binding:"required,calendar_date"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Notes       string          `json:"notes" binding:"max=2000"`
}

// ChangeStatusRequest moves a reservation along its lifecycle
type ChangeStatusRequest struct {
	Status booking.Status `json:"status" binding:"required,booking_status"`
}

// RecordPaymentRequest records money received against a booking
type RecordPaymentRequest struct {
	BookingID string                `json:"booking_id" binding:"required"`
	Amount    decimal.Decimal       `json:"amount"`
	Method    booking.PaymentMethod `json:"method" binding:"required,payment_method"`
	Reference string                `json:"reference" binding:"max=200"`
	PaidAt    *time.Time            `json:"paid_at"`
}

func parseStay(propertyID uuid.UUID, checkIn, checkOut string) (booking.Stay, error) {
	in, err := booking.ParseDate(checkIn)
	if err != nil {
		return booking.Stay{}, err
	}
	out, err := booking.ParseDate(checkOut)
	if err != nil {
		return booking.Stay{}, err
	}
	return booking.Stay{PropertyID: propertyID, CheckIn: in, CheckOut: out}, nil
}
