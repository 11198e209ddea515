package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/staydesk/backend/internal/infrastructure/logger"
	"github.com/staydesk/backend/internal/interfaces/http/middleware"
)

// FeedHub upgrades a request into a change-notice stream
type FeedHub interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request, userID string) error
}

// FeedHandler serves the websocket change feed agents subscribe to
type FeedHandler struct {
	BaseHandler
	hub FeedHub
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(hub FeedHub) *FeedHandler {
	return &FeedHandler{hub: hub}
}

// Subscribe godoc
// @Summary      Change feed
// @Description  Websocket stream of change notices. Browsers may pass the token as ?token=.
// @Tags         feed
// @Security     BearerAuth
// @Router       /feed [get]
func (h *FeedHandler) Subscribe(c *gin.Context) {
	// the upgrader has already answered when this fails
	if err := h.hub.ServeHTTP(c.Writer, c.Request, middleware.GetJWTUserID(c)); err != nil {
		logger.GetGinLogger(c).Debug("Feed upgrade failed", zap.Error(err))
	}
}
