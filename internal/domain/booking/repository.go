package booking

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/staydesk/backend/internal/domain/shared"
)

// ReservationFilter narrows reservation listings. Zero fields do not filter.
type ReservationFilter struct {
	shared.Filter
	Status     Status
	PropertyID uuid.UUID
	// From and To select stays that overlap [From, To)
	From  time.Time
	To    time.Time
	Query string
}

// Matches applies the filter to a single reservation
func (f ReservationFilter) Matches(r *Reservation) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.PropertyID != uuid.Nil && r.PropertyID != f.PropertyID {
		return false
	}
	if !f.From.IsZero() && !f.To.IsZero() && !r.Overlaps(f.From, f.To) {
		return false
	}
	if !f.From.IsZero() && f.To.IsZero() && r.CheckOut.Before(NormalizeDate(f.From)) {
		return false
	}
	if f.From.IsZero() && !f.To.IsZero() && !r.CheckIn.Before(NormalizeDate(f.To)) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		return strings.Contains(strings.ToLower(r.BookingID), q) ||
			strings.Contains(strings.ToLower(r.GuestName), q) ||
			strings.Contains(r.GuestEmail, q) ||
			strings.Contains(r.GuestPhone, q)
	}
	return true
}

// ReservationRepository defines persistence for reservations
type ReservationRepository interface {
	// FindByBookingID returns shared.ErrNotFound when absent
	FindByBookingID(ctx context.Context, bookingID string) (*Reservation, error)

	// FindAll lists reservations matching the filter
	FindAll(ctx context.Context, filter ReservationFilter) ([]Reservation, error)

	// ExistsByBookingID checks for an id collision
	ExistsByBookingID(ctx context.Context, bookingID string) (bool, error)

	// Save creates or updates a reservation
	Save(ctx context.Context, r *Reservation) error

	// Delete removes a reservation and its payments
	Delete(ctx context.Context, bookingID string) error
}

// PaymentRepository defines persistence for payments
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByBookingID(ctx context.Context, bookingID string) ([]Payment, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Payment, error)
	SumByBookingID(ctx context.Context, bookingID string) (decimal.Decimal, error)
	Save(ctx context.Context, p *Payment) error
	Delete(ctx context.Context, id uuid.UUID) error
}
