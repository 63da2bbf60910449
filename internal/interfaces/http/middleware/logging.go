package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/prometheus"
)

const slowRequestThreshold = 3 * time.Second

// statusRecorder captures the status code and response size.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// RequestLogging logs every request and feeds the HTTP metrics.  Health and
// metrics probes are skipped to keep the log readable.
func RequestLogging(logger logging.Logger, metrics *prometheus.Metrics) func(http.Handler) http.Handler {
	logger = logger.Named("http")
	skip := map[string]bool{"/healthz": true, "/readyz": true, "/metrics": true}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			if metrics != nil {
				metrics.HTTPActiveRequests.Inc()
				defer metrics.HTTPActiveRequests.Dec()
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)
			elapsed := time.Since(start)

			route := routePattern(r)
			if metrics != nil {
				metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
				metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
			}

			fields := []logging.Field{
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", rec.status),
				logging.Int64("bytes", rec.bytes),
				logging.Duration("elapsed", elapsed),
			}
			if owner := ContextOwnerID(r.Context()); owner != "" {
				fields = append(fields, logging.String("owner_id", string(owner)))
			}

			switch {
			case rec.status >= 500:
				logger.Error("request failed", fields...)
			case elapsed > slowRequestThreshold:
				logger.Warn("slow request", fields...)
			default:
				logger.Info("request", fields...)
			}
		})
	}
}

// routePattern prefers the chi route template so metrics don't explode on
// path parameters.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
