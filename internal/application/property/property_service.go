// Package property holds the property use cases of the remote data service.
package property

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/staydesk/backend/internal/domain/property"
	"github.com/staydesk/backend/internal/domain/shared"
)

// PropertyRequest creates or replaces a property
type PropertyRequest struct {
	Name            string `json:"name" binding:"required,max=200"`
	Address         string `json:"address" binding:"max=500"`
	Capacity        int    `json:"capacity" binding:"required,min=1"`
	OccupancyTarget int    `json:"occupancy_target" binding:"min=0,max=100"`
	// Active is optional on update; nil keeps the current value
	Active *bool `json:"active"`
}

// PropertyService handles property use cases
type PropertyService struct {
	repo           property.Repository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewPropertyService creates a new PropertyService
func NewPropertyService(repo property.Repository, logger *zap.Logger) *PropertyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PropertyService{repo: repo, logger: logger}
}

// SetEventPublisher sets the publisher that receives property events
func (s *PropertyService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create adds a property
func (s *PropertyService) Create(ctx context.Context, req PropertyRequest) (*property.Property, error) {
	p, err := property.NewProperty(req.Name, req.Address, req.Capacity, req.OccupancyTarget)
	if err != nil {
		return nil, err
	}
	if req.Active != nil && !*req.Active {
		p.Deactivate()
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save property: %w", err)
	}
	s.publish(ctx, property.NewPropertySavedEvent(p))
	s.logger.Info("Property created", zap.String("property_id", p.ID.String()), zap.String("name", p.Name))
	return p, nil
}

// Get returns one property
func (s *PropertyService) Get(ctx context.Context, id uuid.UUID) (*property.Property, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns properties ordered by name
func (s *PropertyService) List(ctx context.Context, activeOnly bool) ([]property.Property, error) {
	return s.repo.FindAll(ctx, activeOnly)
}

// Update replaces the editable fields
func (s *PropertyService) Update(ctx context.Context, id uuid.UUID, req PropertyRequest) (*property.Property, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.Update(req.Name, req.Address, req.Capacity, req.OccupancyTarget); err != nil {
		return nil, err
	}
	if req.Active != nil {
		if *req.Active {
			p.Activate()
		} else {
			p.Deactivate()
		}
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save property: %w", err)
	}
	s.publish(ctx, property.NewPropertySavedEvent(p))
	return p, nil
}

// Delete removes a property that no reservation references. Properties
// with history should be deactivated instead.
func (s *PropertyService) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	inUse, err := s.repo.HasReservations(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return shared.NewDomainError(shared.CodeConflict, "property has reservations; deactivate it instead")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, property.NewPropertyDeletedEvent(p))
	s.logger.Info("Property deleted", zap.String("property_id", id.String()))
	return nil
}

func (s *PropertyService) publish(ctx context.Context, event shared.DomainEvent) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish property event", zap.String("event_type", event.EventType()), zap.Error(err))
	}
}
