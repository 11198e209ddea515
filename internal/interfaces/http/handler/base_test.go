package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/staydesk/backend/internal/application/offline"
	"github.com/staydesk/backend/internal/domain/shared"
	"github.com/staydesk/backend/internal/infrastructure/remote"
)

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, "ERR_NOT_FOUND"},
		{"wrapped validation", fmt.Errorf("create: %w", shared.NewValidationError("guest name is required")), http.StatusBadRequest, "ERR_VALIDATION"},
		{"overpayment", shared.ErrOverpayment, http.StatusUnprocessableEntity, "ERR_OVERPAYMENT"},
		{"transition", shared.ErrTransition, http.StatusUnprocessableEntity, "ERR_INVALID_TRANSITION"},
		{"conflict", shared.ErrConflict, http.StatusConflict, "ERR_CONFLICT"},
		{"offline", offline.ErrOffline, http.StatusServiceUnavailable, "ERR_OFFLINE"},
		{"remote 401 passes through", &remote.APIError{StatusCode: 401, Code: "ERR_INVALID_CREDENTIALS", Message: "Invalid email or password"}, http.StatusUnauthorized, "ERR_INVALID_CREDENTIALS"},
		{"remote 500 becomes bad gateway", &remote.APIError{StatusCode: 500}, http.StatusBadGateway, "ERR_UPSTREAM"},
		{"internal domain error hides message", shared.WrapDomainError("INTERNAL_ERROR", "secret detail", errors.New("boom")), http.StatusInternalServerError, "ERR_INTERNAL"},
		{"plain error", errors.New("db down"), http.StatusInternalServerError, "ERR_INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter()
			h := &BaseHandler{}
			router.GET("/test", func(c *gin.Context) { h.HandleError(c, tt.err) })

			w := doJSON(router, http.MethodGet, "/test", nil)
			assert.Equal(t, tt.status, w.Code)
			env := decode(t, w)
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Error.Code)
			assert.NotEmpty(t, env.Error.RequestID)
			assert.NotContains(t, env.Error.Message, "secret")
			assert.NotContains(t, env.Error.Message, "db down")
		})
	}
}

func TestBaseHandler_ParseUUIDParam(t *testing.T) {
	router := newTestRouter()
	h := &BaseHandler{}
	router.GET("/things/:id", func(c *gin.Context) {
		if _, ok := h.ParseUUIDParam(c, "id"); ok {
			h.NoContent(c)
		}
	})

	assert.Equal(t, http.StatusBadRequest, doJSON(router, http.MethodGet, "/things/nope", nil).Code)
	assert.Equal(t, http.StatusNoContent, doJSON(router, http.MethodGet, "/things/"+testUserID.String(), nil).Code)
}
