package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// SkipPaths get no span; the agent UI polls /status every few seconds
	SkipPaths   []string
}

// TracingWithConfig starts a span per request, named after its route
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	var opts []otelgin.Option
	if len(cfg.SkipPaths) > 0 {
		skip := make(map[string]bool, len(cfg.SkipPaths))
		for _, p := range cfg.SkipPaths {
			skip[p] = true
		}
		opts = append(opts, otelgin.WithFilter(func(r *http.Request) bool {
			return !skip[r.URL.Path]
		}))
	}
	return otelgin.Middleware(cfg.ServiceName, opts...)
}

// SpanEnricher adds request and user attributes to the active span. It runs
// after authentication so the user id is known.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}
		if id := c.GetString(RequestIDKey); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		if uid := GetJWTUserID(c); uid != "" {
			span.SetAttributes(attribute.String("user_id", uid))
		}

		c.Next()

		if status := c.Writer.Status(); status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
