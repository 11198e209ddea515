package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/staydesk/backend/internal/application/offline"
	"github.com/staydesk/backend/internal/domain/shared"
)

// SelectionHandler edits the agent's reservation selection set
type SelectionHandler struct {
	BaseHandler
	state *offline.State
}

// NewSelectionHandler creates a new SelectionHandler
func NewSelectionHandler(state *offline.State) *SelectionHandler {
	return &SelectionHandler{state: state}
}

// List godoc
// @Summary      Selected booking ids
// @Tags         agent
// @Produce      json
// @Success      200 {object} dto.Response{data=[]string}
// @Router       /selection [get]
func (h *SelectionHandler) List(c *gin.Context) {
	h.Success(c, h.state.Selected())
}

// Add godoc
// @Summary      Select a reservation
// @Tags         agent
// @Param        id path string true "Booking ID"
// @Success      200 {object} dto.Response{data=[]string}
// @Failure      404 {object} dto.Response
// @Router       /selection/{id} [put]
func (h *SelectionHandler) Add(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.state.Reservation(id); !ok {
		h.HandleError(c, shared.ErrNotFound)
		return
	}
	h.state.AddSelectedReservation(id)
	h.Success(c, h.state.Selected())
}

// Remove godoc
// @Summary      Deselect a reservation
// @Tags         agent
// @Param        id path string true "Booking ID"
// @Success      200 {object} dto.Response{data=[]string}
// @Router       /selection/{id} [delete]
func (h *SelectionHandler) Remove(c *gin.Context) {
	h.state.RemoveSelectedReservation(c.Param("id"))
	h.Success(c, h.state.Selected())
}

// Clear godoc
// @Summary      Clear the selection
// @Tags         agent
// @Success      204
// @Router       /selection [delete]
func (h *SelectionHandler) Clear(c *gin.Context) {
	h.state.ClearSelection()
	h.NoContent(c)
}
