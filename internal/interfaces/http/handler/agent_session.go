package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	identityapp "github.com/staydesk/backend/internal/application/identity"
	"github.com/staydesk/backend/internal/application/offline"
	"github.com/staydesk/backend/internal/domain/identity"
	"github.com/staydesk/backend/internal/infrastructure/logger"
)

// SessionRemote signs the agent in and out of the remote service
type SessionRemote interface {
	Login(ctx context.Context, email, password string) (*identity.Session, error)
	Logout(ctx context.Context) error
}

// SessionHandler manages the agent's signed-in user
type SessionHandler struct {
	BaseHandler
	remote SessionRemote
	state  *offline.State
	sync   SyncController
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(remote SessionRemote, state *offline.State, sync SyncController) *SessionHandler {
	return &SessionHandler{remote: remote, state: state, sync: sync}
}

// SessionResponse is the body of a successful agent login
type SessionResponse struct {
	User      *identity.Session `json:"user"`
	Sync      *offline.Result   `json:"sync,omitempty"`
	SyncError string            `json:"sync_error,omitempty"`
}

// Login godoc
// @Summary      Sign the agent in
// @Description  Proxies the login to the remote service, keeps the session and refreshes the state
// @Tags         agent
// @Accept       json
// @Produce      json
// @Param        request body identity.LoginInput true "Credentials"
// @Success      200 {object} dto.Response{data=SessionResponse}
// @Failure      401 {object} dto.Response
// @Router       /session/login [post]
func (h *SessionHandler) Login(c *gin.Context) {
	var input identityapp.LoginInput
	if !h.BindJSON(c, &input) {
		return
	}
	sess, err := h.remote.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.state.SetCurrentUser(sess)

	resp := SessionResponse{User: sess}
	result, err := h.sync.RefreshFromRemote(c.Request.Context())
	switch {
	case err == nil:
		resp.Sync = &result
	case errors.Is(err, offline.ErrOffline):
		resp.SyncError = err.Error()
	default:
		logger.GetGinLogger(c).Warn("Refresh after login failed", zap.Error(err))
		resp.SyncError = err.Error()
	}
	h.Success(c, resp)
}

// Current godoc
// @Summary      The signed-in user
// @Tags         agent
// @Produce      json
// @Success      200 {object} dto.Response{data=identity.Session}
// @Failure      401 {object} dto.Response
// @Router       /session [get]
func (h *SessionHandler) Current(c *gin.Context) {
	sess := h.state.CurrentUser()
	if sess == nil {
		h.Unauthorized(c, "Not signed in")
		return
	}
	h.Success(c, sess)
}

// Logout godoc
// @Summary      Sign the agent out
// @Description  The local session is cleared even when the remote call fails
// @Tags         agent
// @Success      204
// @Router       /session/logout [post]
func (h *SessionHandler) Logout(c *gin.Context) {
	if err := h.remote.Logout(c.Request.Context()); err != nil {
		logger.GetGinLogger(c).Warn("Remote logout failed", zap.Error(err))
	}
	h.state.ClearCurrentUser()
	h.state.ClearSelection()
	h.NoContent(c)
}
