package persistence

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/staydesk/backend/internal/domain/notification"
	"github.com/staydesk/backend/internal/infrastructure/persistence/models"
)

// GormPushSubscriptionRepository implements notification.SubscriptionRepository using GORM
type GormPushSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormPushSubscriptionRepository creates a new GormPushSubscriptionRepository
func NewGormPushSubscriptionRepository(db *gorm.DB) *GormPushSubscriptionRepository {
	return &GormPushSubscriptionRepository{db: db}
}

// Upsert stores the subscription. Re-subscribing the same endpoint refreshes its keys and owner.
func (r *GormPushSubscriptionRepository) Upsert(ctx context.Context, s *notification.PushSubscription) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth", "user_agent"}),
		}).
		Create(models.PushSubscriptionModelFromDomain(s)).Error
	return translateError(err)
}

// DeleteByEndpoint removes a subscription. Deleting an unknown endpoint is not an error.
func (r *GormPushSubscriptionRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	return r.db.WithContext(ctx).
		Where("endpoint = ?", endpoint).
		Delete(&models.PushSubscriptionModel{}).Error
}

// FindMatching returns subscriptions owned by any listed user or by an active user holding a listed role
func (r *GormPushSubscriptionRepository) FindMatching(ctx context.Context, filter notification.SubscriptionFilter) ([]notification.PushSubscription, error) {
	query := r.db.WithContext(ctx).Model(&models.PushSubscriptionModel{})

	switch {
	case filter.IsEmpty():
	case len(filter.Roles) == 0:
		query = query.Where("push_subscriptions.user_id IN ?", filter.UserIDs)
	default:
		query = query.Joins("JOIN users ON users.id = push_subscriptions.user_id")
		if len(filter.UserIDs) == 0 {
			query = query.Where("users.role IN ? AND users.active = ?", filter.Roles, true)
		} else {
			query = query.Where("push_subscriptions.user_id IN ? OR (users.role IN ? AND users.active = ?)",
				filter.UserIDs, filter.Roles, true)
		}
	}

	var rows []models.PushSubscriptionModel
	if err := query.Select("push_subscriptions.*").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]notification.PushSubscription, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// Ensure GormPushSubscriptionRepository implements the interface
var _ notification.SubscriptionRepository = (*GormPushSubscriptionRepository)(nil)
