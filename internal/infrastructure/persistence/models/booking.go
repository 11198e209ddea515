package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/staydesk/backend/internal/domain/booking"
)

// ReservationModel is the persistence model for reservations
type ReservationModel struct {
	BookingID   string          `gorm:"type:varchar(16);primaryKey"`
	PropertyID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	GuestName   string          `gorm:"type:varchar(200);not null"`
	GuestEmail  string          `gorm:"type:varchar(200)"`
	GuestPhone  string          `gorm:"type:varchar(50)"`
	Adults      int             `gorm:"not null"`
	Children    int             `gorm:"not null"`
	CheckIn     time.Time       `gorm:"type:date;not null;index"`
	CheckOut    time.Time       `gorm:"type:date;not null"`
	Nights      int             `gorm:"not null"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Status      booking.Status  `gorm:"type:varchar(20);not null;index"`
	Source      booking.Source  `gorm:"type:varchar(20);not null"`
	Notes       string          `gorm:"type:text"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReservationModel) TableName() string {
	return "reservations"
}

// ToDomain converts the model to a domain reservation
func (m *ReservationModel) ToDomain() *booking.Reservation {
	return &booking.Reservation{
		BookingID:   m.BookingID,
		PropertyID:  m.PropertyID,
		GuestName:   m.GuestName,
		GuestEmail:  m.GuestEmail,
		GuestPhone:  m.GuestPhone,
		Adults:      m.Adults,
		Children:    m.Children,
		CheckIn:     booking.NormalizeDate(m.CheckIn),
		CheckOut:    booking.NormalizeDate(m.CheckOut),
		Nights:      m.Nights,
		TotalAmount: m.TotalAmount,
		Status:      m.Status,
		Source:      m.Source,
		Notes:       m.Notes,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ReservationModelFromDomain creates a model from a domain reservation
func ReservationModelFromDomain(r *booking.Reservation) *ReservationModel {
	return &ReservationModel{
		BookingID:   r.BookingID,
		PropertyID:  r.PropertyID,
		GuestName:   r.GuestName,
		GuestEmail:  r.GuestEmail,
		GuestPhone:  r.GuestPhone,
		Adults:      r.Adults,
		Children:    r.Children,
		CheckIn:     r.CheckIn,
		CheckOut:    r.CheckOut,
		Nights:      r.Nights,
		TotalAmount: r.TotalAmount,
		Status:      r.Status,
		Source:      r.Source,
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// PaymentModel is the persistence model for payments
type PaymentModel struct {
	ID        uuid.UUID             `gorm:"type:uuid;primaryKey"`
	BookingID string                `gorm:"type:varchar(16);not null;index"`
	Amount    decimal.Decimal       `gorm:"type:decimal(14,2);not null"`
	Method    booking.PaymentMethod `gorm:"type:varchar(20);not null"`
	Reference string                `gorm:"type:varchar(100)"`
	PaidAt    time.Time             `gorm:"not null;index"`
	CreatedAt time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the model to a domain payment
func (m *PaymentModel) ToDomain() *booking.Payment {
	return &booking.Payment{
		ID:        m.ID,
		BookingID: m.BookingID,
		Amount:    m.Amount,
		Method:    m.Method,
		Reference: m.Reference,
		PaidAt:    m.PaidAt,
		CreatedAt: m.CreatedAt,
	}
}

// PaymentModelFromDomain creates a model from a domain payment
func PaymentModelFromDomain(p *booking.Payment) *PaymentModel {
	return &PaymentModel{
		ID:        p.ID,
		BookingID: p.BookingID,
		Amount:    p.Amount,
		Method:    p.Method,
		Reference: p.Reference,
		PaidAt:    p.PaidAt,
		CreatedAt: p.CreatedAt,
	}
}
