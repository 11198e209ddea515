package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	bookingapp "github.com/staydesk/backend/internal/application/booking"
	"github.com/staydesk/backend/internal/domain/booking"
)

// ReservationService is what ReservationHandler needs from the booking use cases
type ReservationService interface {
	Create(ctx context.Context, req bookingapp.CreateReservationRequest) (*booking.Reservation, error)
	Get(ctx context.Context, bookingID string) (*booking.Reservation, error)
	List(ctx context.Context, filter booking.ReservationFilter) ([]booking.Reservation, error)
	Update(ctx context.Context, bookingID string, req bookingapp.UpdateReservationRequest) (*booking.Reservation, error)
	ChangeStatus(ctx context.Context, bookingID string, status booking.Status) (*booking.Reservation, error)
	Delete(ctx context.Context, bookingID string) error
	Ledger(ctx context.Context, bookingID string) (*booking.Ledger, error)
}

// ReservationHandler serves reservation CRUD
type ReservationHandler struct {
	BaseHandler
	reservations ReservationService
}

// NewReservationHandler creates a new ReservationHandler
func NewReservationHandler(reservations ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

// Create godoc
// @Summary      Create a reservation
// @Description  Books a stay. The booking id is generated.
// @Tags         reservations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body booking.CreateReservationRequest true "Reservation"
// @Success      201 {object} dto.Response{data=booking.Reservation}
// @Failure      400 {object} dto.Response
// @Router       /reservations [post]
func (h *ReservationHandler) Create(c *gin.Context) {
	var req bookingapp.CreateReservationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	r, err := h.reservations.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, r)
}

// List godoc
// @Summary      List reservations
// @Description  Without page_size every matching reservation is returned
// @Tags         reservations
// @Security     BearerAuth
// @Produce      json
// @Param        status      query string false "Status"
// @Param        property_id query string false "Property ID"
// @Param        from        query string false "Stays overlapping from (YYYY-MM-DD)"
// @Param        to          query string false "Stays overlapping until (YYYY-MM-DD)"
// @Param        q           query string false "Guest, phone or booking id"
// @Success      200 {object} dto.Response{data=[]booking.Reservation}
// @Router       /reservations [get]
func (h *ReservationHandler) List(c *gin.Context) {
	var q ReservationQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	list, err := h.reservations.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// Get godoc
// @Summary      Get a reservation
// @Tags         reservations
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Booking ID"
// @Success      200 {object} dto.Response{data=booking.Reservation}
// @Failure      404 {object} dto.Response
// @Router       /reservations/{id} [get]
func (h *ReservationHandler) Get(c *gin.Context) {
	r, err := h.reservations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, r)
}

// Update godoc
// @Summary      Update a reservation
// @Tags         reservations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id      path string true "Booking ID"
// @Param        request body booking.UpdateReservationRequest true "Reservation"
// @Success      200 {object} dto.Response{data=booking.Reservation}
// @Router       /reservations/{id} [put]
func (h *ReservationHandler) Update(c *gin.Context) {
	var req bookingapp.UpdateReservationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	r, err := h.reservations.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, r)
}

// ChangeStatus godoc
// @Summary      Move a reservation along its lifecycle
// @Tags         reservations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id      path string true "Booking ID"
// @Param        request body booking.ChangeStatusRequest true "Target status"
// @Success      200 {object} dto.Response{data=booking.Reservation}
// @Failure      422 {object} dto.Response
// @Router       /reservations/{id}/status [patch]
func (h *ReservationHandler) ChangeStatus(c *gin.Context) {
	var req bookingapp.ChangeStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	r, err := h.reservations.ChangeStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, r)
}

// Delete godoc
// @Summary      Delete a reservation and its payments
// @Tags         reservations
// @Security     BearerAuth
// @Param        id path string true "Booking ID"
// @Success      204
// @Router       /reservations/{id} [delete]
func (h *ReservationHandler) Delete(c *gin.Context) {
	if err := h.reservations.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Ledger godoc
// @Summary      Payment ledger of a reservation
// @Tags         reservations
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Booking ID"
// @Success      200 {object} dto.Response{data=booking.Ledger}
// @Router       /reservations/{id}/ledger [get]
func (h *ReservationHandler) Ledger(c *gin.Context) {
	ledger, err := h.reservations.Ledger(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ledger)
}
