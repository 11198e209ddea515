package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries the surrogate id and timestamps of users and properties.
// Reservations are keyed by their booking id and payments keep their own
// fields, so neither embeds it.
type BaseEntity struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBaseEntity stamps a fresh id with the current time
func NewBaseEntity() BaseEntity {
	return NewBaseEntityAt(time.Now())
}

// NewBaseEntityAt stamps a fresh id with the given creation time, stored in UTC
func NewBaseEntityAt(now time.Time) BaseEntity {
	now = now.UTC()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// Touch bumps UpdatedAt to now
func (e *BaseEntity) Touch() {
	e.TouchAt(time.Now())
}

// TouchAt sets UpdatedAt, never moving it before CreatedAt
func (e *BaseEntity) TouchAt(at time.Time) {
	at = at.UTC()
	if at.Before(e.CreatedAt) {
		at = e.CreatedAt
	}
	e.UpdatedAt = at
}
