package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/staydesk/backend/internal/infrastructure/config"
	"github.com/staydesk/backend/internal/infrastructure/metrics"
	"github.com/staydesk/backend/internal/interfaces/http/handler"
)

// AgentHandlers are the handlers of the local agent view API
type AgentHandlers struct {
	System    *handler.SystemHandler
	Sync      *handler.SyncHandler
	Session   *handler.SessionHandler
	Views     *handler.ViewHandler
	Selection *handler.SelectionHandler
	Messages  *handler.MessageHandler
}

// AgentDeps wires the agent engine
type AgentDeps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Handlers AgentHandlers
}

// NewAgentEngine builds the gin engine of the local agent. It binds to
// loopback and carries no authentication of its own; the signed-in user is
// whoever logged in through /session/login.
func NewAgentEngine(deps AgentDeps) *gin.Engine {
	engine := gin.New()
	applyCommonMiddleware(engine, deps.Config, deps.Logger, deps.Metrics)

	h := deps.Handlers
	if deps.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	r := NewRouter(engine, WithAPIVersion(""))
	r.Register(agentGroups(h)...)
	r.Setup()
	return engine
}

func agentGroups(h AgentHandlers) []RouteRegistrar {
	system := NewDomainGroup("system", "")
	system.GET("/health", h.System.Health)
	system.GET("/status", h.Sync.Status)

	sync := NewDomainGroup("sync", "/sync")
	sync.POST("/refresh", h.Sync.Refresh)
	sync.POST("/online", h.Sync.Online)
	sync.POST("/offline", h.Sync.Offline)

	session := NewDomainGroup("session", "/session")
	session.GET("", h.Session.Current)
	session.POST("/login", h.Session.Login)
	session.POST("/logout", h.Session.Logout)

	views := NewDomainGroup("views", "")
	views.GET("/reservations", h.Views.Reservations)
	views.GET("/reservations/:id", h.Views.Reservation)
	views.GET("/payments", h.Views.Payments)
	views.GET("/properties", h.Views.Properties)
	views.GET("/dashboard", h.Views.Dashboard)
	views.GET("/kanban", h.Views.Kanban)
	views.GET("/search", h.Views.Search)

	selection := NewDomainGroup("selection", "/selection")
	selection.GET("", h.Selection.List)
	selection.DELETE("", h.Selection.Clear)
	selection.PUT("/:id", h.Selection.Add)
	selection.DELETE("/:id", h.Selection.Remove)

	messages := NewDomainGroup("messages", "/messages")
	messages.GET("/templates", h.Messages.Templates)
	messages.GET("/:id/:template", h.Messages.Render)

	return []RouteRegistrar{system, sync, session, views, selection, messages}
}
