package booking

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/staydesk/backend/internal/domain/shared"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\s\-()]{6,19}$`)
)

// Guest holds the guest identity of a reservation
type Guest struct {
	Name     string
	Email    string
	Phone    string
	Adults   int
	Children int
}

// Stay holds the property and dates of a reservation
type Stay struct {
	PropertyID uuid.UUID
	CheckIn    time.Time
	CheckOut   time.Time
}

// Reservation is the aggregate root of the booking context, keyed by BookingID
type Reservation struct {
	shared.EventRecorder `json:"-"`

	BookingID   string          `json:"booking_id"`
	PropertyID  uuid.UUID       `json:"property_id"`
	GuestName   string          `json:"guest_name"`
	GuestEmail  string          `json:"guest_email,omitempty"`
	GuestPhone  string          `json:"guest_phone,omitempty"`
	Adults      int             `json:"adults"`
	Children    int             `json:"children"`
	CheckIn     time.Time       `json:"check_in"`
	CheckOut    time.Time       `json:"check_out"`
	Nights      int             `json:"nights"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      Status          `json:"status"`
	Source      Source          `json:"source"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewReservation creates a pending reservation
func NewReservation(bookingID string, guest Guest, stay Stay, total decimal.Decimal, source Source) (*Reservation, error) {
	if !IsValidBookingID(bookingID) {
		return nil, shared.NewValidationError("booking id is malformed")
	}
	if source == "" {
		source = SourceDirect
	}
	if !source.IsValid() {
		return nil, shared.NewValidationError("unknown reservation source")
	}
	if err := validateTotal(total); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	r := &Reservation{
		BookingID:   bookingID,
		TotalAmount: total,
		Status:      StatusPending,
		Source:      source,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.applyGuest(guest); err != nil {
		return nil, err
	}
	if err := r.applyStay(stay); err != nil {
		return nil, err
	}

	r.AddDomainEvent(NewReservationCreatedEvent(r))
	return r, nil
}

// UpdateGuest replaces the guest identity
func (r *Reservation) UpdateGuest(guest Guest) error {
	if err := r.applyGuest(guest); err != nil {
		return err
	}
	r.touch()
	return nil
}

// Reschedule changes the property and dates, recomputing nights
func (r *Reservation) Reschedule(stay Stay) error {
	if r.Status.IsTerminal() {
		return shared.NewDomainError(shared.CodeInvalidState, "cannot reschedule a "+string(r.Status)+" reservation")
	}
	if err := r.applyStay(stay); err != nil {
		return err
	}
	r.touch()
	return nil
}

// SetTotal changes the quoted total
func (r *Reservation) SetTotal(total decimal.Decimal) error {
	if err := validateTotal(total); err != nil {
		return err
	}
	r.TotalAmount = total
	r.touch()
	return nil
}

// SetNotes replaces the free-text notes
func (r *Reservation) SetNotes(notes string) {
	r.Notes = strings.TrimSpace(notes)
	r.touch()
}

// TransitionTo moves the reservation along its lifecycle. Setting the
// current status again is a no-op.
func (r *Reservation) TransitionTo(next Status) error {
	if !next.IsValid() {
		return shared.NewValidationError("unknown reservation status")
	}
	if next == r.Status {
		return nil
	}
	if !r.Status.CanTransitionTo(next) {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			"cannot move reservation from "+string(r.Status)+" to "+string(next))
	}

	from := r.Status
	r.Status = next
	r.touch()
	r.AddDomainEvent(NewReservationStatusChangedEvent(r, from))
	return nil
}

// MarkDeleted records the deletion event before the repository removes the row
func (r *Reservation) MarkDeleted() {
	r.AddDomainEvent(NewReservationDeletedEvent(r))
}

// IsOccupying reports whether the guest holds the property on day
func (r *Reservation) IsOccupying(day time.Time) bool {
	if r.Status != StatusConfirmed && r.Status != StatusCheckedIn {
		return false
	}
	d := NormalizeDate(day)
	return !d.Before(r.CheckIn) && d.Before(r.CheckOut)
}

// Overlaps reports whether the stay intersects [from, to)
func (r *Reservation) Overlaps(from, to time.Time) bool {
	return r.CheckIn.Before(NormalizeDate(to)) && NormalizeDate(from).Before(r.CheckOut)
}

// NormalizeGuestName trims and collapses internal whitespace
func NormalizeGuestName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

func (r *Reservation) applyGuest(g Guest) error {
	name := NormalizeGuestName(g.Name)
	if name == "" {
		return shared.NewValidationError("guest name is required")
	}
	if len(name) > 200 {
		return shared.NewValidationError("guest name cannot exceed 200 characters")
	}
	email := strings.ToLower(strings.TrimSpace(g.Email))
	if email != "" && !emailPattern.MatchString(email) {
		return shared.NewValidationError("guest email is invalid")
	}
	phone := strings.TrimSpace(g.Phone)
	if phone != "" && !phonePattern.MatchString(phone) {
		return shared.NewValidationError("guest phone is invalid")
	}
	if g.Adults < 1 {
		return shared.NewValidationError("at least one adult is required")
	}
	if g.Children < 0 {
		return shared.NewValidationError("children cannot be negative")
	}

	r.GuestName = name
	r.GuestEmail = email
	r.GuestPhone = phone
	r.Adults = g.Adults
	r.Children = g.Children
	return nil
}

func (r *Reservation) applyStay(s Stay) error {
	if s.PropertyID == uuid.Nil {
		return shared.NewValidationError("property is required")
	}
	if s.CheckIn.IsZero() || s.CheckOut.IsZero() {
		return shared.NewValidationError("check-in and check-out dates are required")
	}
	nights, err := Nights(s.CheckIn, s.CheckOut)
	if err != nil {
		return err
	}

	r.PropertyID = s.PropertyID
	r.CheckIn = NormalizeDate(s.CheckIn)
	r.CheckOut = NormalizeDate(s.CheckOut)
	r.Nights = nights
	return nil
}

func (r *Reservation) touch() {
	r.UpdatedAt = time.Now().UTC()
}

func validateTotal(total decimal.Decimal) error {
	if total.IsNegative() {
		return shared.NewValidationError("total amount cannot be negative")
	}
	return nil
}
