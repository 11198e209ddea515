package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	notificationapp "github.com/staydesk/backend/internal/application/notification"
	"github.com/staydesk/backend/internal/domain/notification"
)

// PushService is what PushHandler needs from the notification use cases
type PushService interface {
	Subscribe(ctx context.Context, userID uuid.UUID, req notificationapp.SubscribeRequest) (*notification.PushSubscription, error)
	Unsubscribe(ctx context.Context, req notificationapp.UnsubscribeRequest) error
	Relay(ctx context.Context, req notificationapp.RelayRequest) (*notification.RelayReport, error)
}

// PushHandler registers browser push subscriptions and relays notifications
type PushHandler struct {
	BaseHandler
	push PushService
}

// NewPushHandler creates a new PushHandler
func NewPushHandler(push PushService) *PushHandler {
	return &PushHandler{push: push}
}

// Subscribe godoc
// @Summary      Register a push subscription for the caller
// @Tags         push
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body notification.SubscribeRequest true "Browser PushSubscription"
// @Success      201 {object} dto.Response
// @Router       /push/subscriptions [post]
func (h *PushHandler) Subscribe(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	var req notificationapp.SubscribeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if req.UserAgent == "" {
		req.UserAgent = c.Request.UserAgent()
	}
	sub, err := h.push.Subscribe(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sub)
}

// Unsubscribe godoc
// @Summary      Remove a push subscription
// @Tags         push
// @Security     BearerAuth
// @Accept       json
// @Param        request body notification.UnsubscribeRequest true "Endpoint"
// @Success      204
// @Router       /push/subscriptions [delete]
func (h *PushHandler) Unsubscribe(c *gin.Context) {
	var req notificationapp.UnsubscribeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.push.Unsubscribe(c.Request.Context(), req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Relay godoc
// @Summary      Send a notification to matching subscriptions
// @Description  Per-endpoint failures are reported in the result, not as an error
// @Tags         push
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body notification.RelayRequest true "Notification"
// @Success      200 {object} dto.Response{data=notification.RelayReport}
// @Router       /push/relay [post]
func (h *PushHandler) Relay(c *gin.Context) {
	var req notificationapp.RelayRequest
	if !h.BindJSON(c, &req) {
		return
	}
	report, err := h.push.Relay(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
