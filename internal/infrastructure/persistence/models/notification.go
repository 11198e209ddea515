package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/staydesk/backend/internal/domain/notification"
)

// PushSubscriptionModel is the persistence model for push subscriptions
type PushSubscriptionModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Endpoint  string    `gorm:"type:text;not null;uniqueIndex"`
	P256dh    string    `gorm:"type:text;not null"`
	Auth      string    `gorm:"type:text;not null"`
	UserAgent string    `gorm:"type:varchar(500)"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PushSubscriptionModel) TableName() string {
	return "push_subscriptions"
}

// ToDomain converts the model to a domain subscription
func (m *PushSubscriptionModel) ToDomain() *notification.PushSubscription {
	return &notification.PushSubscription{
		ID:        m.ID,
		UserID:    m.UserID,
		Endpoint:  m.Endpoint,
		P256dh:    m.P256dh,
		Auth:      m.Auth,
		UserAgent: m.UserAgent,
		CreatedAt: m.CreatedAt,
	}
}

// PushSubscriptionModelFromDomain creates a model from a domain subscription
func PushSubscriptionModelFromDomain(s *notification.PushSubscription) *PushSubscriptionModel {
	return &PushSubscriptionModel{
		ID:        s.ID,
		UserID:    s.UserID,
		Endpoint:  s.Endpoint,
		P256dh:    s.P256dh,
		Auth:      s.Auth,
		UserAgent: s.UserAgent,
		CreatedAt: s.CreatedAt,
	}
}
