// Package dashboard computes the read-only view models the agent serves:
// the summary dashboard, the kanban board, filtered reservation lists and
// the command palette.
package dashboard

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/staydesk/backend/internal/domain/booking"
	"github.com/staydesk/backend/internal/domain/property"
	"github.com/staydesk/backend/internal/domain/shared/valueobject"
)

// Source is the data the views read. offline.State satisfies it.
type Source interface {
	Reservations() []booking.Reservation
	Payments() []booking.Payment
	Properties() []property.Property
	IsSelected(bookingID string) bool
}

// Card is one reservation as rendered in lists and on the board
type Card struct {
	BookingID    string               `json:"booking_id"`
	GuestName    string               `json:"guest_name"`
	GuestPhone   string               `json:"guest_phone,omitempty"`
	PropertyID   uuid.UUID            `json:"property_id"`
	PropertyName string               `json:"property_name"`
	CheckIn      time.Time            `json:"check_in"`
	CheckOut     time.Time            `json:"check_out"`
	Nights       int                  `json:"nights"`
	Guests       int                  `json:"guests"`
	Status       booking.Status       `json:"status"`
	Source       booking.Source       `json:"source"`
	Total        decimal.Decimal      `json:"total"`
	TotalLabel   string               `json:"total_label"`
	Paid         decimal.Decimal      `json:"paid"`
	BalanceDue   decimal.Decimal      `json:"balance_due"`
	BalanceLabel string               `json:"balance_label"`
	PaymentState booking.PaymentState `json:"payment_state"`
	Selected     bool                 `json:"selected"`
	CreatedAt    time.Time            `json:"created_at"`
}

// Builder derives view models from a Source
type Builder struct {
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Builder
type Option func(*Builder)

// WithClock sets the clock used for "today"
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a Builder
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) today() time.Time {
	return booking.NormalizeDate(b.now())
}

// dataset is one consistent read of the source with lookups prepared
type dataset struct {
	reservations []booking.Reservation
	properties   []property.Property
	propertyByID map[uuid.UUID]property.Property
	paymentsBy   map[string][]booking.Payment
	src          Source
}

func load(src Source) *dataset {
	d := &dataset{
		reservations: src.Reservations(),
		properties:   src.Properties(),
		paymentsBy:   make(map[string][]booking.Payment),
		src:          src,
	}
	d.propertyByID = make(map[uuid.UUID]property.Property, len(d.properties))
	for _, p := range d.properties {
		d.propertyByID[p.ID] = p
	}
	for _, p := range src.Payments() {
		d.paymentsBy[p.BookingID] = append(d.paymentsBy[p.BookingID], p)
	}
	return d
}

func (d *dataset) ledger(r *booking.Reservation) booking.Ledger {
	return booking.NewLedger(r, d.paymentsBy[r.BookingID])
}

func (d *dataset) card(r *booking.Reservation) Card {
	l := d.ledger(r)
	name := "Unknown property"
	if p, ok := d.propertyByID[r.PropertyID]; ok {
		name = p.Name
	}
	return Card{
		BookingID:    r.BookingID,
		GuestName:    r.GuestName,
		GuestPhone:   r.GuestPhone,
		PropertyID:   r.PropertyID,
		PropertyName: name,
		CheckIn:      r.CheckIn,
		CheckOut:     r.CheckOut,
		Nights:       r.Nights,
		Guests:       r.Adults + r.Children,
		Status:       r.Status,
		Source:       r.Source,
		Total:        r.TotalAmount,
		TotalLabel:   valueobject.FormatINR(r.TotalAmount, false),
		Paid:         l.Paid,
		BalanceDue:   l.BalanceDue,
		BalanceLabel: valueobject.FormatINR(l.BalanceDue, false),
		PaymentState: l.State,
		Selected:     d.src.IsSelected(r.BookingID),
		CreatedAt:    r.CreatedAt,
	}
}
