package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/staydesk/backend/internal/domain/booking"
	"github.com/staydesk/backend/internal/domain/shared"
	"github.com/staydesk/backend/internal/infrastructure/persistence/models"
)

// GormPaymentRepository implements booking.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

var paymentOrderColumns = map[string]string{
	"paid_at":    "paid_at",
	"amount":     "amount",
	"created_at": "created_at",
}

// FindByID finds a payment by id
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByBookingID returns a booking's payments, oldest first
func (r *GormPaymentRepository) FindByBookingID(ctx context.Context, bookingID string) ([]booking.Payment, error) {
	var rows []models.PaymentModel
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("paid_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return paymentsToDomain(rows), nil
}

// FindAll lists payments across bookings
func (r *GormPaymentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]booking.Payment, error) {
	query := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Order(orderClause(filter, paymentOrderColumns, "paid_at"))
	if filter.Paged() {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.PaymentModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return paymentsToDomain(rows), nil
}

// SumByBookingID totals the payments recorded against a booking
func (r *GormPaymentRepository) SumByBookingID(ctx context.Context, bookingID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	row := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("booking_id = ?", bookingID).
		Row()
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// Save inserts a payment. Payments are immutable once recorded.
func (r *GormPaymentRepository) Save(ctx context.Context, p *booking.Payment) error {
	return translateError(r.db.WithContext(ctx).Create(models.PaymentModelFromDomain(p)).Error)
}

// Delete removes a payment
func (r *GormPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PaymentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func paymentsToDomain(rows []models.PaymentModel) []booking.Payment {
	out := make([]booking.Payment, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out
}

// Ensure GormPaymentRepository implements the interface
var _ booking.PaymentRepository = (*GormPaymentRepository)(nil)
