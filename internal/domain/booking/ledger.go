package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentState summarises how much of a reservation is paid
type PaymentState string

const (
	PaymentStateUnpaid   PaymentState = "unpaid"
	PaymentStatePartial  PaymentState = "partial"
	PaymentStatePaid     PaymentState = "paid"
	PaymentStateOverpaid PaymentState = "overpaid"
)

// Ledger is the derived payment position of one reservation
type Ledger struct {
	BookingID     string          `json:"booking_id"`
	Total         decimal.Decimal `json:"total"`
	Paid          decimal.Decimal `json:"paid"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
	Overpaid      bool            `json:"overpaid"`
	OverpaidBy    decimal.Decimal `json:"overpaid_by"`
	State         PaymentState    `json:"state"`
	PaymentCount  int             `json:"payment_count"`
	LastPaymentAt *time.Time      `json:"last_payment_at,omitempty"`
}

// NewLedger computes the ledger of r from payments. Payments for other
// bookings are ignored. A zero-total reservation with nothing paid is paid.
func NewLedger(r *Reservation, payments []Payment) Ledger {
	l := Ledger{
		BookingID:  r.BookingID,
		Total:      r.TotalAmount,
		Paid:       decimal.Zero,
		OverpaidBy: decimal.Zero,
	}

	for i := range payments {
		p := payments[i]
		if p.BookingID != r.BookingID {
			continue
		}
		l.Paid = l.Paid.Add(p.Amount)
		l.PaymentCount++
		if l.LastPaymentAt == nil || p.PaidAt.After(*l.LastPaymentAt) {
			paidAt := p.PaidAt
			l.LastPaymentAt = &paidAt
		}
	}

	diff := l.Total.Sub(l.Paid)
	switch {
	case diff.IsNegative():
		l.BalanceDue = decimal.Zero
		l.Overpaid = true
		l.OverpaidBy = diff.Neg()
		l.State = PaymentStateOverpaid
	case diff.IsZero():
		l.BalanceDue = decimal.Zero
		l.State = PaymentStatePaid
	case l.Paid.IsZero():
		l.BalanceDue = diff
		l.State = PaymentStateUnpaid
	default:
		l.BalanceDue = diff
		l.State = PaymentStatePartial
	}
	return l
}

// WouldOverpay reports whether accepting amount pushes the paid sum above the total
func (l Ledger) WouldOverpay(amount decimal.Decimal) bool {
	return l.Paid.Add(amount).GreaterThan(l.Total)
}
