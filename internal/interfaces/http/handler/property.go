package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	propertyapp "github.com/staydesk/backend/internal/application/property"
	"github.com/staydesk/backend/internal/domain/property"
)

// PropertyService is what PropertyHandler needs from the property use cases
type PropertyService interface {
	Create(ctx context.Context, req propertyapp.PropertyRequest) (*property.Property, error)
	Get(ctx context.Context, id uuid.UUID) (*property.Property, error)
	List(ctx context.Context, activeOnly bool) ([]property.Property, error)
	Update(ctx context.Context, id uuid.UUID, req propertyapp.PropertyRequest) (*property.Property, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PropertyHandler serves properties
type PropertyHandler struct {
	BaseHandler
	properties PropertyService
}

// NewPropertyHandler creates a new PropertyHandler
func NewPropertyHandler(properties PropertyService) *PropertyHandler {
	return &PropertyHandler{properties: properties}
}

// Create godoc
// @Summary      Create a property
// @Tags         properties
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body property.PropertyRequest true "Property"
// @Success      201 {object} dto.Response{data=property.Property}
// @Router       /properties [post]
func (h *PropertyHandler) Create(c *gin.Context) {
	var req propertyapp.PropertyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := h.properties.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, p)
}

// List godoc
// @Summary      List properties
// @Tags         properties
// @Security     BearerAuth
// @Produce      json
// @Param        active query bool false "Only active properties"
// @Success      200 {object} dto.Response{data=[]property.Property}
// @Router       /properties [get]
func (h *PropertyHandler) List(c *gin.Context) {
	list, err := h.properties.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// Get godoc
// @Summary      Get a property
// @Tags         properties
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Property ID"
// @Success      200 {object} dto.Response{data=property.Property}
// @Router       /properties/{id} [get]
func (h *PropertyHandler) Get(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	p, err := h.properties.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// Update godoc
// @Summary      Update a property
// @Tags         properties
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id      path string true "Property ID"
// @Param        request body property.PropertyRequest true "Property"
// @Success      200 {object} dto.Response{data=property.Property}
// @Router       /properties/{id} [put]
func (h *PropertyHandler) Update(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req propertyapp.PropertyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := h.properties.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// Delete godoc
// @Summary      Delete an unused property
// @Tags         properties
// @Security     BearerAuth
// @Param        id path string true "Property ID"
// @Success      204
// @Failure      409 {object} dto.Response "Property has reservations"
// @Router       /properties/{id} [delete]
func (h *PropertyHandler) Delete(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.properties.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
