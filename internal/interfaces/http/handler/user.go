package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	identityapp "github.com/staydesk/backend/internal/application/identity"
	"github.com/staydesk/backend/internal/domain/shared"
	"github.com/staydesk/backend/internal/interfaces/http/dto"
)

// UserService is what UserHandler needs from the identity use cases
type UserService interface {
	Create(ctx context.Context, input identityapp.CreateUserInput) (*identityapp.UserInfo, error)
	List(ctx context.Context, filter shared.Filter) ([]identityapp.UserInfo, error)
	Get(ctx context.Context, id uuid.UUID) (*identityapp.UserInfo, error)
}

// UserHandler manages staff accounts
type UserHandler struct {
	BaseHandler
	users UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Create godoc
// @Summary      Create a user
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body identity.CreateUserInput true "User"
// @Success      201 {object} dto.Response{data=identity.UserInfo}
// @Failure      409 {object} dto.Response
// @Router       /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var input identityapp.CreateUserInput
	if !h.BindJSON(c, &input) {
		return
	}
	info, err := h.users.Create(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, info)
}

// List godoc
// @Summary      List users
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Success      200 {object} dto.Response{data=[]identity.UserInfo}
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	req = req.Normalized()
	users, err := h.users.List(c.Request.Context(), shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, users)
}

// Get godoc
// @Summary      Get a user
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "User ID"
// @Success      200 {object} dto.Response{data=identity.UserInfo}
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	info, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}
