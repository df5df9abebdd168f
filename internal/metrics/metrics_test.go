package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHTTPMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/products/1", "/products/2", "/missing"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/products/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))
}

func TestJobMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewJobMetrics(reg)

	m.ObserveDuration("audit", 10*time.Millisecond)
	m.IncSuccess("audit")
	m.IncFailure("")
	m.SetOrderTotalMismatches(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.success.WithLabelValues("audit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failure.WithLabelValues("unknown")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.mismatch))
}

func TestNilSafe(t *testing.T) {
	var jobs *JobMetrics
	jobs.IncSuccess("x")
	jobs.SetOrderTotalMismatches(1)

	unregistered := NewHTTPMetrics(nil)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(unregistered.Middleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
