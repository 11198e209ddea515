package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/staydesk/backend/internal/domain/booking"
	"github.com/staydesk/backend/internal/domain/shared"
	"github.com/staydesk/backend/internal/domain/shared/valueobject"
	"github.com/staydesk/backend/internal/infrastructure/config"
)

// PaymentService handles payment use cases
type PaymentService struct {
	payments         booking.PaymentRepository
	reservations     booking.ReservationRepository
	allowOverpayment bool
	eventPublisher   shared.EventPublisher
	logger           *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	payments booking.PaymentRepository,
	reservations booking.ReservationRepository,
	cfg config.PaymentsConfig,
	logger *zap.Logger,
) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		payments:         payments,
		reservations:     reservations,
		allowOverpayment: cfg.AllowOverpayment,
		logger:           logger,
	}
}

// SetEventPublisher sets the publisher that receives payment events
func (s *PaymentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Record stores a payment against a reservation. Unless overpayment is
// allowed, a payment that would take the paid sum above the total is
// rejected with ErrOverpayment.
func (s *PaymentService) Record(ctx context.Context, req RecordPaymentRequest) (*booking.Payment, error) {
	r, err := s.reservations.FindByBookingID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if r.Status == booking.StatusCancelled {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "cannot record a payment for a cancelled reservation")
	}

	var paidAt time.Time
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	p, err := booking.NewPayment(r.BookingID, req.Amount, req.Method, req.Reference, paidAt)
	if err != nil {
		return nil, err
	}

	if !s.allowOverpayment {
		existing, err := s.payments.FindByBookingID(ctx, r.BookingID)
		if err != nil {
			return nil, fmt.Errorf("load payments: %w", err)
		}
		ledger := booking.NewLedger(r, existing)
		if ledger.WouldOverpay(p.Amount) {
			s.logger.Warn("Overpayment rejected",
				zap.String("booking_id", r.BookingID),
				zap.String("amount", p.Amount.String()),
				zap.String("balance_due", ledger.BalanceDue.String()))
			return nil, shared.NewDomainError(shared.CodeOverpayment,
				"payment exceeds the balance due of "+valueobject.FormatINR(ledger.BalanceDue, false))
		}
	}

	if err := s.payments.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save payment: %w", err)
	}
	publishEvents(ctx, s.eventPublisher, p, s.logger)

	s.logger.Info("Payment recorded",
		zap.String("booking_id", p.BookingID),
		zap.String("payment_id", p.ID.String()),
		zap.String("amount", p.Amount.String()),
		zap.String("method", string(p.Method)))
	return p, nil
}

// List returns the payments of one booking, or every payment when
// bookingID is empty
func (s *PaymentService) List(ctx context.Context, bookingID string, filter shared.Filter) ([]booking.Payment, error) {
	if bookingID != "" {
		return s.payments.FindByBookingID(ctx, bookingID)
	}
	return s.payments.FindAll(ctx, filter)
}

// Delete removes a payment
func (s *PaymentService) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return err
	}
	p.MarkDeleted()
	if err := s.payments.Delete(ctx, id); err != nil {
		return err
	}
	publishEvents(ctx, s.eventPublisher, p, s.logger)
	return nil
}
