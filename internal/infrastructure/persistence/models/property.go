package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/staydesk/backend/internal/domain/property"
	"github.com/staydesk/backend/internal/domain/shared"
)

// PropertyModel is the persistence model for properties
type PropertyModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name            string    `gorm:"type:varchar(200);not null"`
	Address         string    `gorm:"type:text"`
	Capacity        int       `gorm:"not null"`
	OccupancyTarget int       `gorm:"not null"`
	Active          bool      `gorm:"not null"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PropertyModel) TableName() string {
	return "properties"
}

// ToDomain converts the model to a domain property
func (m *PropertyModel) ToDomain() *property.Property {
	return &property.Property{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Name:            m.Name,
		Address:         m.Address,
		Capacity:        m.Capacity,
		OccupancyTarget: m.OccupancyTarget,
		Active:          m.Active,
	}
}

// PropertyModelFromDomain creates a model from a domain property
func PropertyModelFromDomain(p *property.Property) *PropertyModel {
	return &PropertyModel{
		ID:              p.ID,
		Name:            p.Name,
		Address:         p.Address,
		Capacity:        p.Capacity,
		OccupancyTarget: p.OccupancyTarget,
		Active:          p.Active,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
