package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/staydesk/backend/internal/domain/booking"
	"github.com/staydesk/backend/internal/domain/shared"
	"github.com/staydesk/backend/internal/infrastructure/persistence/models"
)

// GormReservationRepository implements booking.ReservationRepository using GORM
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

var reservationOrderColumns = map[string]string{
	"check_in":     "check_in",
	"check_out":    "check_out",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"guest_name":   "guest_name",
	"total_amount": "total_amount",
}

// FindByBookingID finds a reservation by its booking id
func (r *GormReservationRepository) FindByBookingID(ctx context.Context, bookingID string) (*booking.Reservation, error) {
	var model models.ReservationModel
	if err := r.db.WithContext(ctx).First(&model, "booking_id = ?", bookingID).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists reservations matching the filter, newest check-in first by default
func (r *GormReservationRepository) FindAll(ctx context.Context, filter booking.ReservationFilter) ([]booking.Reservation, error) {
	query := r.db.WithContext(ctx).Model(&models.ReservationModel{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PropertyID != uuid.Nil {
		query = query.Where("property_id = ?", filter.PropertyID)
	}
	if !filter.From.IsZero() {
		query = query.Where("check_out > ?", booking.NormalizeDate(filter.From))
	}
	if !filter.To.IsZero() {
		query = query.Where("check_in < ?", booking.NormalizeDate(filter.To))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + q + "%"
		query = query.Where(
			"booking_id ILIKE ? OR guest_name ILIKE ? OR guest_email ILIKE ? OR guest_phone ILIKE ?",
			like, like, like, like,
		)
	}

	query = query.Order(orderClause(filter.Filter, reservationOrderColumns, "check_in"))
	if filter.Paged() {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.ReservationModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]booking.Reservation, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// ExistsByBookingID reports whether a reservation with the id exists
func (r *GormReservationRepository) ExistsByBookingID(ctx context.Context, bookingID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReservationModel{}).
		Where("booking_id = ?", bookingID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save upserts the reservation keyed by booking id
func (r *GormReservationRepository) Save(ctx context.Context, res *booking.Reservation) error {
	model := models.ReservationModelFromDomain(res)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "booking_id"}},
			UpdateAll: true,
		}).
		Create(model).Error
	return translateError(err)
}

// Delete removes a reservation together with its payments
func (r *GormReservationRepository) Delete(ctx context.Context, bookingID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("booking_id = ?", bookingID).Delete(&models.PaymentModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("booking_id = ?", bookingID).Delete(&models.ReservationModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// orderClause builds a safe ORDER BY from an allowlist of columns
func orderClause(f shared.Filter, allowed map[string]string, fallback string) string {
	column, ok := allowed[f.OrderBy]
	if !ok {
		column = fallback
	}
	dir := "DESC"
	if f.Ascending() {
		dir = "ASC"
	}
	return column + " " + dir
}

// Ensure GormReservationRepository implements the interface
var _ booking.ReservationRepository = (*GormReservationRepository)(nil)
