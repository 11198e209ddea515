package notification

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/staydesk/backend/internal/domain/identity"
	"github.com/staydesk/backend/internal/domain/shared"
)

// PushSubscription is a browser push endpoint registered by a user
type PushSubscription struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPushSubscription validates and creates a subscription
func NewPushSubscription(userID uuid.UUID, endpoint, p256dh, auth, userAgent string) (*PushSubscription, error) {
	if userID == uuid.Nil {
		return nil, shared.NewValidationError("user is required")
	}
	endpoint = strings.TrimSpace(endpoint)
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return nil, shared.NewValidationError("endpoint must be an https URL")
	}
	if p256dh == "" || auth == "" {
		return nil, shared.NewValidationError("subscription keys are required")
	}

	return &PushSubscription{
		ID:        uuid.New(),
		UserID:    userID,
		Endpoint:  endpoint,
		P256dh:    p256dh,
		Auth:      auth,
		UserAgent: userAgent,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// SubscriptionFilter selects relay targets. Empty lists match everyone.
type SubscriptionFilter struct {
	UserIDs []uuid.UUID     `json:"user_ids,omitempty"`
	Roles   []identity.Role `json:"roles,omitempty"`
}

// IsEmpty reports whether the filter selects all subscriptions
func (f SubscriptionFilter) IsEmpty() bool {
	return len(f.UserIDs) == 0 && len(f.Roles) == 0
}

// SubscriptionRepository defines persistence for push subscriptions
type SubscriptionRepository interface {
	// Upsert stores the subscription keyed by endpoint
	Upsert(ctx context.Context, s *PushSubscription) error
	DeleteByEndpoint(ctx context.Context, endpoint string) error
	// FindMatching returns subscriptions whose owner matches the filter
	FindMatching(ctx context.Context, filter SubscriptionFilter) ([]PushSubscription, error)
}
