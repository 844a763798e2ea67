package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.SetDevices("display", 1)
	m.RecordLock("graphics", "acquired")
	m.RecordDispatch("ui", "queued", 1)
	m.RecordConsume("ui", 0)
	m.RecordServiceTransition("sdcard", "start")
	m.SetServicesRunning(1)
	m.RecordAppTransition("Launcher", "shown")
	m.SetAppStackDepth(1)
	m.RecordHTTPRequest("GET", "/health", "200", time.Millisecond)
	m.IncWSConnections()
	m.DecWSConnections()
	assert.Nil(t, m.Registry())
	assert.NotNil(t, m.Handler())
}

func TestIndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordLock("spi2", "timeout")
	a.RecordLock("spi2", "timeout")

	assert.Equal(t, 2.0, testutil.ToFloat64(a.LockAcquisitions.WithLabelValues("spi2", "timeout")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.LockAcquisitions.WithLabelValues("spi2", "timeout")))
}

func TestDispatchDepthGauge(t *testing.T) {
	m := NewMetrics()
	m.RecordDispatch("ui", "queued", 3)
	m.RecordConsume("ui", 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DispatchQueueDepth.WithLabelValues("ui")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DispatchConsumed.WithLabelValues("ui")))
}

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/apps/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/apps/Launcher", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/apps/:id", "204")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.SetServicesRunning(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tactility_services_running 3")
	assert.Contains(t, rec.Body.String(), "tactility_uptime_seconds")
}
