package router

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staydesk/backend/internal/application/dashboard"
	"github.com/staydesk/backend/internal/application/offline"
	"github.com/staydesk/backend/internal/domain/identity"
	"github.com/staydesk/backend/internal/domain/messaging"
	"github.com/staydesk/backend/internal/infrastructure/metrics"
	"github.com/staydesk/backend/internal/interfaces/http/handler"
)

type idleSync struct{}

func (idleSync) Status() offline.StatusReport {
	return offline.StatusReport{Status: offline.StatusOffline}
}

func (idleSync) RefreshFromRemote(context.Context) (offline.Result, error) {
	return offline.Result{}, offline.ErrOffline
}

func (idleSync) MarkOnline()  {}
func (idleSync) MarkOffline() {}

type noRemote struct{}

func (noRemote) Login(context.Context, string, string) (*identity.Session, error) {
	return nil, offline.ErrOffline
}

func (noRemote) Logout(context.Context) error { return nil }

func newAgent(t *testing.T) *gin.Engine {
	t.Helper()
	state := offline.NewState()
	renderer, err := messaging.NewRenderer(nil)
	require.NoError(t, err)

	return NewAgentEngine(AgentDeps{
		Config:  testConfig(),
		Metrics: metrics.New(),
		Handlers: AgentHandlers{
			System:    handler.NewSystemHandler("staydesk-agent", "test", nil),
			Sync:      handler.NewSyncHandler(idleSync{}),
			Session:   handler.NewSessionHandler(noRemote{}, state, idleSync{}),
			Views:     handler.NewViewHandler(state, dashboard.NewBuilder()),
			Selection: handler.NewSelectionHandler(state),
			Messages:  handler.NewMessageHandler(state, renderer),
		},
	})
}

func TestAgentEngine(t *testing.T) {
	engine := newAgent(t)

	routes := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/status", http.StatusOK},
		{http.MethodPost, "/sync/refresh", http.StatusServiceUnavailable},
		{http.MethodGet, "/session", http.StatusUnauthorized},
		{http.MethodGet, "/reservations", http.StatusOK},
		{http.MethodGet, "/reservations/HST25ZZZZZZ", http.StatusNotFound},
		{http.MethodGet, "/payments", http.StatusOK},
		{http.MethodGet, "/properties", http.StatusOK},
		{http.MethodGet, "/dashboard", http.StatusOK},
		{http.MethodGet, "/kanban", http.StatusOK},
		{http.MethodGet, "/search?q=asha", http.StatusOK},
		{http.MethodGet, "/selection", http.StatusOK},
		{http.MethodDelete, "/selection", http.StatusNoContent},
		{http.MethodPut, "/selection/HST25ZZZZZZ", http.StatusNotFound},
		{http.MethodGet, "/messages/templates", http.StatusOK},
		{http.MethodGet, "/api/v1/reservations", http.StatusNotFound},
	}
	for _, tt := range routes {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.status, serve(engine, tt.method, tt.path).Code)
		})
	}
}
