package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/staydesk/backend/internal/domain/identity"
	"github.com/staydesk/backend/internal/infrastructure/auth"
	"github.com/staydesk/backend/internal/infrastructure/config"
	"github.com/staydesk/backend/internal/infrastructure/logger"
	"github.com/staydesk/backend/internal/infrastructure/metrics"
	"github.com/staydesk/backend/internal/interfaces/http/handler"
	"github.com/staydesk/backend/internal/interfaces/http/middleware"
)

// ServerHandlers are the handlers of the remote data service
type ServerHandlers struct {
	System       *handler.SystemHandler
	Auth         *handler.AuthHandler
	Users        *handler.UserHandler
	Properties   *handler.PropertyHandler
	Reservations *handler.ReservationHandler
	Payments     *handler.PaymentHandler
	Push         *handler.PushHandler
	Exports      *handler.ExportHandler
	Feed         *handler.FeedHandler
}

// ServerDeps wires the cross-cutting pieces of the server engine
type ServerDeps struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	JWTService *auth.JWTService
	Blacklist  auth.TokenBlacklist
	Handlers   ServerHandlers
}

// NewServerEngine builds the gin engine of the remote data service
func NewServerEngine(deps ServerDeps) *gin.Engine {
	engine := gin.New()
	applyCommonMiddleware(engine, deps.Config, deps.Logger, deps.Metrics)

	if deps.Config.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(deps.Config.HTTP.RateLimitRequests, deps.Config.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
	}

	h := deps.Handlers
	engine.GET("/health", h.System.Health)
	if deps.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	jwtCfg := middleware.DefaultJWTConfig(deps.JWTService)
	jwtCfg.TokenBlacklist = deps.Blacklist
	jwtCfg.Logger = deps.Logger

	r := NewRouter(engine, WithMiddleware(
		middleware.JWTAuthMiddlewareWithConfig(jwtCfg),
		middleware.SpanEnricher(),
	))
	r.Register(serverGroups(h)...)
	r.Setup()
	return engine
}

func serverGroups(h ServerHandlers) []RouteRegistrar {
	system := NewDomainGroup("system", "")
	system.GET("/health", h.System.Health)

	authGroup := NewDomainGroup("auth", "/auth")
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/logout", h.Auth.Logout)
	authGroup.GET("/me", h.Auth.Me)

	users := NewDomainGroup("users", "/users").Use(middleware.RequirePermission(identity.PermUserManage))
	users.POST("", h.Users.Create)
	users.GET("", h.Users.List)
	users.GET("/:id", h.Users.Get)

	properties := NewDomainGroup("properties", "/properties")
	properties.GET("", middleware.RequirePermission(identity.PermPropertyRead), h.Properties.List)
	properties.GET("/:id", middleware.RequirePermission(identity.PermPropertyRead), h.Properties.Get)
	properties.POST("", middleware.RequirePermission(identity.PermPropertyWrite), h.Properties.Create)
	properties.PUT("/:id", middleware.RequirePermission(identity.PermPropertyWrite), h.Properties.Update)
	properties.DELETE("/:id", middleware.RequirePermission(identity.PermPropertyWrite), h.Properties.Delete)

	read := middleware.RequirePermission(identity.PermReservationRead)
	write := middleware.RequirePermission(identity.PermReservationWrite)
	reservations := NewDomainGroup("reservations", "/reservations")
	reservations.GET("", read, h.Reservations.List)
	reservations.POST("", write, h.Reservations.Create)
	reservations.GET("/:id", read, h.Reservations.Get)
	reservations.PUT("/:id", write, h.Reservations.Update)
	reservations.PATCH("/:id/status", write, h.Reservations.ChangeStatus)
	reservations.DELETE("/:id", write, h.Reservations.Delete)
	reservations.GET("/:id/ledger", read, middleware.RequirePermission(identity.PermPaymentRead), h.Reservations.Ledger)
	reservations.GET("/:id/payments", middleware.RequirePermission(identity.PermPaymentRead), h.Payments.ListForReservation)

	payments := NewDomainGroup("payments", "/payments")
	payments.GET("", middleware.RequirePermission(identity.PermPaymentRead), h.Payments.List)
	payments.POST("", middleware.RequirePermission(identity.PermPaymentWrite), h.Payments.Record)
	payments.DELETE("/:id", middleware.RequirePermission(identity.PermPaymentWrite), h.Payments.Delete)

	push := NewDomainGroup("push", "/push")
	push.POST("/subscriptions", h.Push.Subscribe)
	push.DELETE("/subscriptions", h.Push.Unsubscribe)
	push.POST("/relay", middleware.RequirePermission(identity.PermPushRelay), h.Push.Relay)

	exports := NewDomainGroup("exports", "/exports").Use(middleware.RequirePermission(identity.PermExport))
	exports.GET("/reservations", h.Exports.Reservations)

	feed := NewDomainGroup("feed", "/feed")
	feed.GET("", h.Feed.Subscribe)

	return []RouteRegistrar{system, authGroup, users, properties, reservations, payments, push, exports, feed}
}

// pollPaths are hit by probes and the agent UI on a timer
var pollPaths = []string{"/health", "/status", "/metrics", "/api/v1/health"}

func applyCommonMiddleware(engine *gin.Engine, cfg *config.Config, log *zap.Logger, m *metrics.Metrics) {
	if log == nil {
		log = zap.NewNop()
	}
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log, pollPaths...))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.SecureWithConfig(middleware.DefaultSecurityConfig()))

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(cors))

	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
		SkipPaths:   pollPaths,
	}))
	var observer middleware.HTTPObserver
	if m != nil {
		observer = m
	}
	engine.Use(middleware.HTTPMetrics(observer))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
}
