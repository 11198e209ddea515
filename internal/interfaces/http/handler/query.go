package handler

import (
	"github.com/google/uuid"

	"github.com/staydesk/backend/internal/domain/booking"
	"github.com/staydesk/backend/internal/domain/shared"
	"github.com/staydesk/backend/internal/interfaces/http/dto"
)

// ReservationQuery is the query string of reservation listings
type ReservationQuery struct {
	dto.ListRequest
	Status     booking.Status `form:"status" binding:"omitempty,booking_status"`
	PropertyID string         `form:"property_id" binding:"omitempty,uuid"`
	From       string         `form:"from"`
	To         string         `form:"to"`
	Query      string         `form:"q" binding:"max=200"`
}

// ToFilter converts the query into a repository filter
func (q ReservationQuery) ToFilter() (booking.ReservationFilter, error) {
	list := q.Normalized()
	f := booking.ReservationFilter{
		Filter: shared.Filter{
			Page:     list.Page,
			PageSize: list.PageSize,
			OrderBy:  list.OrderBy,
			OrderDir: list.OrderDir,
		},
		Status: q.Status,
		Query:  q.Query,
	}
	if q.PropertyID != "" {
		id, err := uuid.Parse(q.PropertyID)
		if err != nil {
			return f, shared.NewValidationError("property_id must be a UUID")
		}
		f.PropertyID = id
	}
	var err error
	if q.From != "" {
		if f.From, err = booking.ParseDate(q.From); err != nil {
			return f, err
		}
	}
	if q.To != "" {
		if f.To, err = booking.ParseDate(q.To); err != nil {
			return f, err
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, shared.NewValidationError("to must not be before from")
	}
	return f, nil
}
