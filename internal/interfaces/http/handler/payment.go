package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	bookingapp "github.com/staydesk/backend/internal/application/booking"
	"github.com/staydesk/backend/internal/domain/booking"
	"github.com/staydesk/backend/internal/domain/shared"
	"github.com/staydesk/backend/internal/interfaces/http/dto"
)

// PaymentService is what PaymentHandler needs from the booking use cases
type PaymentService interface {
	Record(ctx context.Context, req bookingapp.RecordPaymentRequest) (*booking.Payment, error)
	List(ctx context.Context, bookingID string, filter shared.Filter) ([]booking.Payment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PaymentHandler serves payments
type PaymentHandler struct {
	BaseHandler
	payments PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type paymentQuery struct {
	dto.ListRequest
	BookingID string `form:"booking_id"`
}

// Record godoc
// @Summary      Record a payment
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body booking.RecordPaymentRequest true "Payment"
// @Success      201 {object} dto.Response{data=booking.Payment}
// @Failure      422 {object} dto.Response "Overpayment or cancelled reservation"
// @Router       /payments [post]
func (h *PaymentHandler) Record(c *gin.Context) {
	var req bookingapp.RecordPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := h.payments.Record(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, p)
}

// List godoc
// @Summary      List payments
// @Description  Optionally restricted to one booking
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        booking_id query string false "Booking ID"
// @Success      200 {object} dto.Response{data=[]booking.Payment}
// @Router       /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	var q paymentQuery
	if !h.BindQuery(c, &q) {
		return
	}
	list := q.Normalized()
	payments, err := h.payments.List(c.Request.Context(), q.BookingID, shared.Filter{
		Page:     list.Page,
		PageSize: list.PageSize,
		OrderBy:  list.OrderBy,
		OrderDir: list.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}

// ListForReservation godoc
// @Summary      Payments of one reservation
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Booking ID"
// @Success      200 {object} dto.Response{data=[]booking.Payment}
// @Router       /reservations/{id}/payments [get]
func (h *PaymentHandler) ListForReservation(c *gin.Context) {
	payments, err := h.payments.List(c.Request.Context(), c.Param("id"), shared.Filter{})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}

// Delete godoc
// @Summary      Delete a payment
// @Tags         payments
// @Security     BearerAuth
// @Param        id path string true "Payment ID"
// @Success      204
// @Router       /payments/{id} [delete]
func (h *PaymentHandler) Delete(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.payments.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
