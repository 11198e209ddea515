package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/staydesk/backend/internal/application/dashboard"
	"github.com/staydesk/backend/internal/application/offline"
	"github.com/staydesk/backend/internal/domain/booking"
	"github.com/staydesk/backend/internal/domain/shared"
)

// ViewHandler serves the agent's read-only views of its local state
type ViewHandler struct {
	BaseHandler
	state   *offline.State
	builder *dashboard.Builder
}

// NewViewHandler creates a new ViewHandler
func NewViewHandler(state *offline.State, builder *dashboard.Builder) *ViewHandler {
	return &ViewHandler{state: state, builder: builder}
}

type viewQuery struct {
	ReservationQuery
	PaymentState booking.PaymentState `form:"payment_state" binding:"omitempty,oneof=unpaid partial paid overpaid"`
	SelectedOnly bool                 `form:"selected"`
	Sort         string               `form:"sort"`
}

func (h *ViewHandler) bindFilter(c *gin.Context) (dashboard.Filter, bool) {
	var q viewQuery
	if !h.BindQuery(c, &q) {
		return dashboard.Filter{}, false
	}
	rf, err := q.ToFilter()
	if err != nil {
		h.HandleError(c, err)
		return dashboard.Filter{}, false
	}
	sort, err := dashboard.ParseSort(q.Sort)
	if err != nil {
		h.HandleError(c, err)
		return dashboard.Filter{}, false
	}
	return dashboard.Filter{
		ReservationFilter: rf,
		PaymentState:      q.PaymentState,
		SelectedOnly:      q.SelectedOnly,
		Sort:              sort,
	}, true
}

// Reservations godoc
// @Summary      Reservation cards from local state
// @Tags         agent
// @Produce      json
// @Param        status        query string false "Status"
// @Param        payment_state query string false "unpaid, partial, paid or overpaid"
// @Param        selected      query bool   false "Only selected reservations"
// @Param        sort          query string false "Field, prefixed with - for descending"
// @Success      200 {object} dto.Response{data=[]dashboard.Card}
// @Router       /reservations [get]
func (h *ViewHandler) Reservations(c *gin.Context) {
	f, ok := h.bindFilter(c)
	if !ok {
		return
	}
	cards := h.builder.List(h.state, f)
	h.SuccessWithMeta(c, cards, int64(len(cards)), 0, 0)
}

// Reservation godoc
// @Summary      One reservation with its ledger
// @Tags         agent
// @Produce      json
// @Param        id path string true "Booking ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /reservations/{id} [get]
func (h *ViewHandler) Reservation(c *gin.Context) {
	r, ok := h.state.Reservation(c.Param("id"))
	if !ok {
		h.HandleError(c, shared.ErrNotFound)
		return
	}
	payments := h.state.PaymentsFor(r.BookingID)
	h.Success(c, gin.H{
		"reservation": r,
		"payments":    payments,
		"ledger":      booking.NewLedger(&r, payments),
		"selected":    h.state.IsSelected(r.BookingID),
	})
}

// Payments godoc
// @Summary      Payments from local state
// @Tags         agent
// @Produce      json
// @Param        booking_id query string false "Booking ID"
// @Success      200 {object} dto.Response{data=[]booking.Payment}
// @Router       /payments [get]
func (h *ViewHandler) Payments(c *gin.Context) {
	if id := c.Query("booking_id"); id != "" {
		h.Success(c, h.state.PaymentsFor(id))
		return
	}
	h.Success(c, h.state.Payments())
}

// Properties godoc
// @Summary      Properties from local state
// @Tags         agent
// @Produce      json
// @Success      200 {object} dto.Response{data=[]property.Property}
// @Router       /properties [get]
func (h *ViewHandler) Properties(c *gin.Context) {
	h.Success(c, h.state.Properties())
}

// Dashboard godoc
// @Summary      Dashboard summary
// @Tags         agent
// @Produce      json
// @Success      200 {object} dto.Response{data=dashboard.Summary}
// @Router       /dashboard [get]
func (h *ViewHandler) Dashboard(c *gin.Context) {
	h.Success(c, h.builder.Summary(h.state))
}

// Kanban godoc
// @Summary      Reservations grouped by status
// @Tags         agent
// @Produce      json
// @Success      200 {object} dto.Response{data=dashboard.Board}
// @Router       /kanban [get]
func (h *ViewHandler) Kanban(c *gin.Context) {
	f, ok := h.bindFilter(c)
	if !ok {
		return
	}
	h.Success(c, h.builder.Kanban(h.state, f))
}

// Search godoc
// @Summary      Command palette search
// @Tags         agent
// @Produce      json
// @Param        q     query string true  "Query"
// @Param        limit query int    false "Maximum results"
// @Success      200 {object} dto.Response{data=[]dashboard.SearchResult}
// @Router       /search [get]
func (h *ViewHandler) Search(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.BadRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	h.Success(c, h.builder.Search(h.state, c.Query("q"), limit))
}
