package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/neurondb/NeuronFlow/internal/logging"
	"github.com/neurondb/NeuronFlow/internal/metrics"
)

// LoggingMiddleware logs HTTP requests and records request metrics
func LoggingMiddleware(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			recorder := newStatusRecorder(w)
			next.ServeHTTP(recorder, r)

			duration := time.Since(start)
			endpoint := routeTemplate(r)
			metrics.RecordHTTPRequest(r.Method, endpoint, recorder.statusCode, duration.Seconds())

			fields := map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"route":       endpoint,
				"status_code": recorder.statusCode,
				"duration_ms": duration.Milliseconds(),
				"remote_addr": r.RemoteAddr,
				"user_agent":  r.UserAgent(),
				"request_id":  GetRequestID(r.Context()),
			}
			if recorder.statusCode >= http.StatusInternalServerError {
				logger.Warn("HTTP request", fields)
			} else {
				logger.Info("HTTP request", fields)
			}
		})
	}
}

/* routeTemplate keeps metric label cardinality bounded */
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
