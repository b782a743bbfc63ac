package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/neurondb/NeuronFlow/internal/logging"
	"github.com/neurondb/NeuronFlow/internal/response"
)

// RecoveryMiddleware recovers from panics
func RecoveryMiddleware(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("Panic recovered", fmt.Errorf("%v", rec), map[string]interface{}{
						"path":       r.URL.Path,
						"request_id": GetRequestID(r.Context()),
						"stack":      string(debug.Stack()),
					})

					response.WriteFailure(w, r, http.StatusInternalServerError, response.CodeInternalError, "internal server error", nil)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
