package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/staydesk/backend/internal/application/offline"
)

// SyncController is the agent's connectivity and refresh surface
type SyncController interface {
	Status() offline.StatusReport
	RefreshFromRemote(ctx context.Context) (offline.Result, error)
	MarkOnline()
	MarkOffline()
}

// SyncHandler exposes connectivity status and manual refresh on the agent
type SyncHandler struct {
	BaseHandler
	sync SyncController
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(sync SyncController) *SyncHandler {
	return &SyncHandler{sync: sync}
}

// Status godoc
// @Summary      Connectivity and freshness
// @Tags         agent
// @Produce      json
// @Success      200 {object} dto.Response{data=offline.StatusReport}
// @Router       /status [get]
func (h *SyncHandler) Status(c *gin.Context) {
	h.Success(c, h.sync.Status())
}

// Refresh godoc
// @Summary      Refresh from the remote service now
// @Description  Concurrent refreshes share one fetch. Offline answers 503.
// @Tags         agent
// @Produce      json
// @Success      200 {object} dto.Response{data=offline.Result}
// @Failure      503 {object} dto.Response
// @Router       /sync/refresh [post]
func (h *SyncHandler) Refresh(c *gin.Context) {
	result, err := h.sync.RefreshFromRemote(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Online godoc
// @Summary      Mark the agent online
// @Tags         agent
// @Success      200 {object} dto.Response{data=offline.StatusReport}
// @Router       /sync/online [post]
func (h *SyncHandler) Online(c *gin.Context) {
	h.sync.MarkOnline()
	h.Success(c, h.sync.Status())
}

// Offline godoc
// @Summary      Mark the agent offline
// @Tags         agent
// @Success      200 {object} dto.Response{data=offline.StatusReport}
// @Router       /sync/offline [post]
func (h *SyncHandler) Offline(c *gin.Context) {
	h.sync.MarkOffline()
	h.Success(c, h.sync.Status())
}
