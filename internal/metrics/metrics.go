// Package metrics provides Prometheus metrics for the DiskView server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskview_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "diskview_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Projection metrics
	projectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskview_projections_total",
			Help: "Total entity projections computed",
		},
		[]string{"disk", "result"},
	)

	projectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "diskview_projection_duration_seconds",
			Help:    "Time to compute one entity metadata record",
			Buckets: prometheus.DefBuckets,
		},
	)

	mimeFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "diskview_mime_fallbacks_total",
			Help: "MIME lookups that fell back to application/octet-stream",
		},
	)

	// Driver metrics
	driverOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "diskview_driver_operation_duration_seconds",
			Help:    "Storage driver operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"driver", "operation"},
	)

	driverOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskview_driver_operations_total",
			Help: "Total storage driver operations",
		},
		[]string{"driver", "operation", "status"},
	)

	// Signing metrics
	signedURLsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "diskview_signed_urls_total",
			Help: "Temporary/signed URLs issued",
		},
	)

	signedURLRedemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskview_signed_url_redemptions_total",
			Help: "Signed download URL redemption attempts",
		},
		[]string{"result"},
	)

	// Registry metrics
	disksConfigured = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "diskview_disks_configured",
			Help: "Number of disks currently configured in the registry",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordProjection records one entity projection.
func RecordProjection(disk string, exists bool, duration time.Duration) {
	result := "exists"
	if !exists {
		result = "missing"
	}
	projectionsTotal.WithLabelValues(disk, result).Inc()
	projectionDuration.Observe(duration.Seconds())
}

// RecordMimeFallback records a MIME lookup that degraded to the default type.
func RecordMimeFallback() {
	mimeFallbacksTotal.Inc()
}

// RecordDriverOperation records a storage driver call.
func RecordDriverOperation(driver, operation string, duration time.Duration, success bool) {
	driverOperationDuration.WithLabelValues(driver, operation).Observe(duration.Seconds())
	status := "success"
	if !success {
		status = "error"
	}
	driverOperationsTotal.WithLabelValues(driver, operation, status).Inc()
}

// RecordSignedURL records a temporary URL issuance.
func RecordSignedURL() {
	signedURLsTotal.Inc()
}

// RecordSignedURLRedemption records a signed download attempt.
func RecordSignedURLRedemption(ok bool) {
	result := "ok"
	if !ok {
		result = "rejected"
	}
	signedURLRedemptionsTotal.WithLabelValues(result).Inc()
}

// SetDisksConfigured sets the number of configured disks.
func SetDisksConfigured(count int) {
	disksConfigured.Set(float64(count))
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware returns HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		RecordHTTPRequest(r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}
