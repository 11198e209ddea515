package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/staydesk/backend/internal/domain/shared"
)

// PaymentMethod is how a payment was made
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodUPI          PaymentMethod = "upi"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodOTA          PaymentMethod = "ota" // collected by the booking channel
)

// IsValid reports whether the method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodUPI, PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodOTA:
		return true
	}
	return false
}

// Payment is a single amount received against a reservation
type Payment struct {
	shared.EventRecorder `json:"-"`

	ID        uuid.UUID       `json:"id"`
	BookingID string          `json:"booking_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
	Reference string          `json:"reference,omitempty"`
	PaidAt    time.Time       `json:"paid_at"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewPayment creates a payment. A zero paidAt means now.
func NewPayment(bookingID string, amount decimal.Decimal, method PaymentMethod, reference string, paidAt time.Time) (*Payment, error) {
	if bookingID == "" {
		return nil, shared.NewValidationError("booking id is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("payment amount must be greater than zero")
	}
	if !method.IsValid() {
		return nil, shared.NewValidationError("unknown payment method")
	}

	now := time.Now().UTC()
	if paidAt.IsZero() {
		paidAt = now
	}
	p := &Payment{
		ID:        uuid.New(),
		BookingID: bookingID,
		Amount:    amount,
		Method:    method,
		Reference: strings.TrimSpace(reference),
		PaidAt:    paidAt.UTC(),
		CreatedAt: now,
	}
	p.AddDomainEvent(NewPaymentRecordedEvent(p))
	return p, nil
}

// MarkDeleted records the deletion event
func (p *Payment) MarkDeleted() {
	p.AddDomainEvent(NewPaymentDeletedEvent(p))
}
