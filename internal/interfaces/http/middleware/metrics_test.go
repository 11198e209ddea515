package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staydesk/backend/internal/infrastructure/metrics"
)

func TestHTTPMetrics(t *testing.T) {
	m := metrics.New()
	router := gin.New()
	router.Use(HTTPMetrics(m))
	router.GET("/api/v1/reservations/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/reservations/SD-1", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/reservations/SD-2", nil))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if !strings.HasPrefix(f.GetName(), "staydesk_http_requests_total") {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "route" {
					assert.Equal(t, "/api/v1/reservations/:id", l.GetValue())
					assert.Equal(t, float64(2), metric.GetCounter().GetValue())
					found = true
				}
			}
		}
	}
	assert.True(t, found)
	assert.Positive(t, testutil.CollectAndCount(m.Registry()))
}

func TestHTTPMetrics_NilObserver(t *testing.T) {
	router := gin.New()
	router.Use(HTTPMetrics(nil))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
