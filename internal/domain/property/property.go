package property

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/staydesk/backend/internal/domain/shared"
)

// Property is a rentable unit
type Property struct {
	shared.BaseEntity
	Name            string `json:"name"`
	Address         string `json:"address,omitempty"`
	Capacity        int    `json:"capacity"`         // max guests
	OccupancyTarget int    `json:"occupancy_target"` // percent
	Active          bool   `json:"active"`
}

// NewProperty creates an active property
func NewProperty(name, address string, capacity, occupancyTarget int) (*Property, error) {
	p := &Property{
		BaseEntity: shared.NewBaseEntity(),
		Active:     true,
	}
	if err := p.Update(name, address, capacity, occupancyTarget); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces the editable fields
func (p *Property) Update(name, address string, capacity, occupancyTarget int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("property name is required")
	}
	if len(name) > 200 {
		return shared.NewValidationError("property name cannot exceed 200 characters")
	}
	if capacity <= 0 {
		return shared.NewValidationError("capacity must be greater than zero")
	}
	if occupancyTarget < 0 || occupancyTarget > 100 {
		return shared.NewValidationError("occupancy target must be between 0 and 100")
	}

	p.Name = name
	p.Address = strings.TrimSpace(address)
	p.Capacity = capacity
	p.OccupancyTarget = occupancyTarget
	p.Touch()
	return nil
}

// Deactivate hides the property from new bookings
func (p *Property) Deactivate() {
	p.Active = false
	p.Touch()
}

// Activate re-enables the property
func (p *Property) Activate() {
	p.Active = true
	p.Touch()
}

// CanHost reports whether the property is active and fits the party
func (p *Property) CanHost(guests int) bool {
	return p.Active && guests <= p.Capacity
}

// Repository defines persistence for properties
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Property, error)
	FindAll(ctx context.Context, activeOnly bool) ([]Property, error)
	Save(ctx context.Context, p *Property) error
	Delete(ctx context.Context, id uuid.UUID) error
	// HasReservations reports whether any reservation references the property
	HasReservations(ctx context.Context, id uuid.UUID) (bool, error)
}
