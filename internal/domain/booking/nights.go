package booking

import (
	"time"

	"github.com/staydesk/backend/internal/domain/shared"
)

// DateLayout is the wire format for stay dates
const DateLayout = "2006-01-02"

// NormalizeDate drops the time of day, keeping the calendar date as UTC midnight
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, shared.NewValidationError("date must use the YYYY-MM-DD format")
	}
	return t, nil
}

// Nights returns the number of nights between two calendar dates.
// A same-day stay has zero nights; check-out before check-in is rejected.
func Nights(checkIn, checkOut time.Time) (int, error) {
	in, out := NormalizeDate(checkIn), NormalizeDate(checkOut)
	if out.Before(in) {
		return 0, errInvalidDates()
	}
	// both are UTC midnights; time.Duration would saturate past ~292 years
	return int((out.Unix() - in.Unix()) / 86400), nil
}

func errInvalidDates() error {
	return shared.WrapDomainError(shared.CodeInvalidDates, "check-out must not be before check-in", shared.ErrValidation)
}
