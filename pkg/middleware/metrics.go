// Package middleware provides reusable HTTP middleware for request IDs,
// Prometheus metrics, per-client rate limiting, CORS, and request
// timeouts.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/searchlite/searchlite/pkg/metrics"
)

// Metrics observes every request: count by method/path/status, latency
// histogram, and an in-flight gauge.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.HTTPRequestsInFlight.Inc()
			started := time.Now()

			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			path := metricPath(r.URL.Path)
			m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(started).Seconds())
			m.HTTPRequestsInFlight.Dec()
		})
	}
}

// responseRecorder captures the status code; only the first WriteHeader
// counts, matching net/http semantics.
type responseRecorder struct {
	http.ResponseWriter
	status    int
	committed bool
}

func (rec *responseRecorder) WriteHeader(code int) {
	if !rec.committed {
		rec.status = code
		rec.committed = true
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *responseRecorder) Write(b []byte) (int, error) {
	rec.committed = true
	return rec.ResponseWriter.Write(b)
}

// metricPath keeps the label cardinality bounded. Routes here carry no
// path parameters, so the raw path is already a stable label.
func metricPath(path string) string {
	return path
}
