// Package booking holds the reservation and payment use cases of the remote
// data service.
package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/staydesk/backend/internal/domain/booking"
	"github.com/staydesk/backend/internal/domain/property"
	"github.com/staydesk/backend/internal/domain/shared"
	"github.com/staydesk/backend/internal/infrastructure/telemetry"
)

// maxIDAttempts bounds booking id generation when ids collide
const maxIDAttempts = 5

// ReservationService handles reservation use cases
type ReservationService struct {
	reservations   booking.ReservationRepository
	payments       booking.PaymentRepository
	properties     property.Repository
	ids            *booking.IDGenerator
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewReservationService creates a new ReservationService
func NewReservationService(
	reservations booking.ReservationRepository,
	payments booking.PaymentRepository,
	properties property.Repository,
	ids *booking.IDGenerator,
	logger *zap.Logger,
) *ReservationService {
	if ids == nil {
		ids = booking.NewIDGenerator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationService{
		reservations: reservations,
		payments:     payments,
		properties:   properties,
		ids:          ids,
		logger:       logger,
	}
}

// SetEventPublisher sets the publisher that receives reservation events
func (s *ReservationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create books a new pending reservation under a freshly generated id
func (s *ReservationService) Create(ctx context.Context, req CreateReservationRequest) (*booking.Reservation, error) {
	stay, err := parseStay(req.PropertyID, req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}
	guest := req.GuestInput.toDomain()
	if err := s.checkProperty(ctx, stay.PropertyID, guest.Adults+guest.Children); err != nil {
		return nil, err
	}

	id, err := s.nextBookingID(ctx)
	if err != nil {
		return nil, err
	}

	r, err := booking.NewReservation(id, guest, stay, req.TotalAmount, req.Source)
	if err != nil {
		return nil, err
	}
	if req.Notes != "" {
		r.SetNotes(req.Notes)
	}

	if err := s.reservations.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("save reservation: %w", err)
	}
	s.publish(ctx, r)

	s.logger.Info("Reservation created",
		zap.String("booking_id", r.BookingID),
		zap.String("property_id", r.PropertyID.String()),
		zap.Int("nights", r.Nights))
	return r, nil
}

// Get returns one reservation
func (s *ReservationService) Get(ctx context.Context, bookingID string) (*booking.Reservation, error) {
	return s.reservations.FindByBookingID(ctx, bookingID)
}

// List returns reservations matching the filter
func (s *ReservationService) List(ctx context.Context, filter booking.ReservationFilter) ([]booking.Reservation, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, shared.NewValidationError("unknown reservation status")
	}
	return s.reservations.FindAll(ctx, filter)
}

// Update replaces guest, stay, total and notes
func (s *ReservationService) Update(ctx context.Context, bookingID string, req UpdateReservationRequest) (*booking.Reservation, error) {
	r, err := s.reservations.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	stay, err := parseStay(req.PropertyID, req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}
	guest := req.GuestInput.toDomain()

	if stay.PropertyID != r.PropertyID {
		if err := s.checkProperty(ctx, stay.PropertyID, guest.Adults+guest.Children); err != nil {
			return nil, err
		}
	}
	if err := r.UpdateGuest(guest); err != nil {
		return nil, err
	}
	if !stay.CheckIn.Equal(r.CheckIn) || !stay.CheckOut.Equal(r.CheckOut) || stay.PropertyID != r.PropertyID {
		if err := r.Reschedule(stay); err != nil {
			return nil, err
		}
	}
	if err := r.SetTotal(req.TotalAmount); err != nil {
		return nil, err
	}
	r.SetNotes(req.Notes)
	r.AddDomainEvent(booking.NewReservationUpdatedEvent(r))

	if err := s.reservations.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("save reservation: %w", err)
	}
	s.publish(ctx, r)
	return r, nil
}

// ChangeStatus applies a lifecycle transition
func (s *ReservationService) ChangeStatus(ctx context.Context, bookingID string, status booking.Status) (_ *booking.Reservation, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reservation", "change_status", telemetry.AttrBookingID.String(bookingID))
	defer func() { telemetry.Finish(span, err) }()

	r, err := s.reservations.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	from := r.Status
	if err := r.TransitionTo(status); err != nil {
		return nil, err
	}
	if from == r.Status {
		return r, nil
	}

	if err := s.reservations.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("save reservation: %w", err)
	}
	s.publish(ctx, r)

	s.logger.Info("Reservation status changed",
		zap.String("booking_id", r.BookingID),
		zap.String("from", string(from)),
		zap.String("to", string(r.Status)))
	return r, nil
}

// Delete removes a reservation and its payments
func (s *ReservationService) Delete(ctx context.Context, bookingID string) error {
	r, err := s.reservations.FindByBookingID(ctx, bookingID)
	if err != nil {
		return err
	}
	r.MarkDeleted()
	if err := s.reservations.Delete(ctx, bookingID); err != nil {
		return err
	}
	s.publish(ctx, r)
	s.logger.Info("Reservation deleted", zap.String("booking_id", bookingID))
	return nil
}

// Ledger computes the payment position of a reservation
func (s *ReservationService) Ledger(ctx context.Context, bookingID string) (*booking.Ledger, error) {
	r, err := s.reservations.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}
	l := booking.NewLedger(r, payments)
	return &l, nil
}

func (s *ReservationService) nextBookingID(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		id, err := s.ids.Generate()
		if err != nil {
			return "", fmt.Errorf("generate booking id: %w", err)
		}
		exists, err := s.reservations.ExistsByBookingID(ctx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
		s.logger.Warn("Booking id collision", zap.String("booking_id", id), zap.Int("attempt", attempt))
	}
	return "", shared.NewDomainError(shared.CodeConflict, "could not allocate a unique booking id")
}

func (s *ReservationService) checkProperty(ctx context.Context, id uuid.UUID, guests int) error {
	if id == uuid.Nil {
		return shared.NewValidationError("property is required")
	}
	p, err := s.properties.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewValidationError("property does not exist")
		}
		return err
	}
	if !p.Active {
		return shared.NewValidationError("property is not accepting bookings")
	}
	if !p.CanHost(guests) {
		return shared.NewValidationError(fmt.Sprintf("property hosts at most %d guests", p.Capacity))
	}
	return nil
}

func (s *ReservationService) publish(ctx context.Context, agg shared.AggregateRoot) {
	publishEvents(ctx, s.eventPublisher, agg, s.logger)
}

// publishEvents hands pending events to the publisher and clears them.
// Publish failures are logged; the write already happened.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, agg shared.AggregateRoot, logger *zap.Logger) {
	events := agg.GetDomainEvents()
	agg.ClearDomainEvents()
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Error("Failed to publish domain events", zap.Int("count", len(events)), zap.Error(err))
	}
}
