package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staydesk/backend/internal/domain/identity"
	"github.com/staydesk/backend/internal/domain/shared"
	"github.com/staydesk/backend/internal/infrastructure/auth"
	"github.com/staydesk/backend/internal/infrastructure/config"
)

func newTestJWTService(expiration time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:     "test-secret-key-at-least-32-chars",
		Expiration: expiration,
		Issuer:     "staydesk-test",
	})
}

func newTestToken(t *testing.T, svc *auth.JWTService, role identity.Role) (*auth.Token, *identity.User) {
	t.Helper()
	user := &identity.User{
		BaseEntity: shared.NewBaseEntity(),
		Email:      "staff@example.com",
		Role:       role,
		Active:     true,
	}
	token, err := svc.Generate(user)
	require.NoError(t, err)
	return token, user
}

func protectedRouter(cfg JWTMiddlewareConfig) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), JWTAuthMiddlewareWithConfig(cfg))
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetJWTUserID(c), "role": GetJWTRole(c)})
	}
	router.GET("/api/v1/reservations", handler)
	router.GET("/api/v1/feed", handler)
	router.GET("/health", handler)
	return router
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	router := protectedRouter(DefaultJWTConfig(svc))
	token, user := newTestToken(t, svc, identity.RoleStaff)

	t.Run("valid bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token.AccessToken)
		w := serve(router, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), user.ID.String())
		assert.Contains(t, w.Body.String(), `"role":"staff"`)
	})

	t.Run("missing header", func(t *testing.T) {
		w := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/reservations", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_UNAUTHORIZED")
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations", nil)
		req.Header.Set(AuthHeaderKey, "Basic abc")
		w := serve(router, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid authorization header format")
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+"not.a.token")
		w := serve(router, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_TOKEN_INVALID")
	})

	t.Run("skip path", func(t *testing.T) {
		w := serve(router, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("query token only on the feed", func(t *testing.T) {
		w := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/feed?token="+token.AccessToken, nil))
		assert.Equal(t, http.StatusOK, w.Code)

		w = serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/reservations?token="+token.AccessToken, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestJWTAuthMiddleware_Expired(t *testing.T) {
	svc := newTestJWTService(-time.Minute)
	token, _ := newTestToken(t, svc, identity.RoleStaff)
	router := protectedRouter(DefaultJWTConfig(svc))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token.AccessToken)
	w := serve(router, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_TOKEN_EXPIRED")
}

func TestJWTAuthMiddleware_Revoked(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	token, _ := newTestToken(t, svc, identity.RoleAdmin)
	blacklist := auth.NewInMemoryTokenBlacklist()
	require.NoError(t, blacklist.Revoke(context.Background(), token.ID, time.Hour))

	cfg := DefaultJWTConfig(svc)
	cfg.TokenBlacklist = blacklist
	router := protectedRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token.AccessToken)
	w := serve(router, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_TOKEN_REVOKED")
}

func TestGetJWTClaims_Unauthenticated(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetJWTUserID(c))
	assert.Empty(t, GetJWTRole(c))
}
