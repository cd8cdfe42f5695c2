// internal/middleware/requestlog.go
//
// Request logging and the per-request Prometheus counter.
//
// One INFO line per request with method, path, status, and latency; the
// apikit_http_requests_total counter is bumped with the status class so
// dashboards can watch error rates without log scraping.

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rigazamy/apikit/internal/metrics"
)

// statusRecorder captures the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLog wraps next with logging and metrics.
func RequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		class := strconv.Itoa(rec.status/100) + "xx"
		metrics.RequestsTotal.WithLabelValues(r.Method, class).Inc()

		zap.S().Infow("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
