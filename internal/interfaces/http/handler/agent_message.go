package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/staydesk/backend/internal/application/offline"
	"github.com/staydesk/backend/internal/domain/booking"
	"github.com/staydesk/backend/internal/domain/messaging"
	"github.com/staydesk/backend/internal/domain/shared"
)

// MessageHandler renders guest messages from local state
type MessageHandler struct {
	BaseHandler
	state    *offline.State
	renderer *messaging.Renderer
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(state *offline.State, renderer *messaging.Renderer) *MessageHandler {
	return &MessageHandler{state: state, renderer: renderer}
}

// MessageResponse is a rendered message and its share link
type MessageResponse struct {
	messaging.Rendered
	BookingID string `json:"booking_id"`
	Phone     string `json:"phone,omitempty"`
	// WhatsAppURL is empty when the guest has no phone number
	WhatsAppURL string `json:"whatsapp_url,omitempty"`
}

// Templates godoc
// @Summary      Available message templates
// @Tags         agent
// @Produce      json
// @Success      200 {object} dto.Response{data=[]string}
// @Router       /messages/templates [get]
func (h *MessageHandler) Templates(c *gin.Context) {
	h.Success(c, h.renderer.Names())
}

// Render godoc
// @Summary      Render a message for a reservation
// @Description  Unknown template names fall back to the default template
// @Tags         agent
// @Produce      json
// @Param        id       path string true "Booking ID"
// @Param        template path string true "Template name"
// @Success      200 {object} dto.Response{data=MessageResponse}
// @Failure      404 {object} dto.Response
// @Router       /messages/{id}/{template} [get]
func (h *MessageHandler) Render(c *gin.Context) {
	r, ok := h.state.Reservation(c.Param("id"))
	if !ok {
		h.HandleError(c, shared.ErrNotFound)
		return
	}

	data := messaging.Data{Reservation: r}
	for _, p := range h.state.Properties() {
		if p.ID == r.PropertyID {
			data.PropertyName = p.Name
			data.PropertyAddress = p.Address
			break
		}
	}
	ledger := booking.NewLedger(&r, h.state.PaymentsFor(r.BookingID))
	data.Ledger = &ledger

	rendered, err := h.renderer.Render(c.Param("template"), data)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	resp := MessageResponse{Rendered: rendered, BookingID: r.BookingID, Phone: r.GuestPhone}
	if r.GuestPhone != "" {
		resp.WhatsAppURL = messaging.WhatsAppLink(r.GuestPhone, rendered.Text)
	}
	h.Success(c, resp)
}
