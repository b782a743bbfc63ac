package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/neurondb/NeuronFlow/internal/injector"
	"github.com/neurondb/NeuronFlow/internal/logging"
	"github.com/neurondb/NeuronFlow/internal/response"
	"github.com/neurondb/NeuronFlow/internal/validation"
)

// NotFoundError reports a missing entity (404)
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s was not found", e.Entity, e.ID)
}

// OperationFailedError reports a mutation that produced no result (400)
type OperationFailedError struct {
	Operation string
}

func (e *OperationFailedError) Error() string {
	return fmt.Sprintf("%s failed", e.Operation)
}

// ErrCapabilityUnavailable reports an unregistered provider capability (503)
var ErrCapabilityUnavailable = errors.New("capability unavailable")

/* capabilityUnavailable wraps a resolve failure so both sentinels match */
func capabilityUnavailable(name string, err error) error {
	if errors.Is(err, injector.ErrNotRegistered) {
		return fmt.Errorf("%w: %s: %w", ErrCapabilityUnavailable, name, err)
	}
	return err
}

// HandlerFunc is an HTTP handler that reports failures as errors
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

/*
 * handle adapts a HandlerFunc to http.Handler, translating every returned
 * error into the failure envelope.
 */
func handle(logger *logging.Logger, fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			WriteError(w, r, logger, err)
		}
	}
}

// WriteError classifies err and writes the matching failure envelope
func WriteError(w http.ResponseWriter, r *http.Request, logger *logging.Logger, err error) {
	var (
		validationErr *validation.ValidationError
		notFound      *NotFoundError
		opFailed      *OperationFailedError
		maxBytes      *http.MaxBytesError
	)

	switch {
	case errors.As(err, &validationErr):
		response.WriteFailure(w, r, http.StatusBadRequest, response.CodeValidationFailed, validationErr.Error(), validationErr.Errors)
	case errors.As(err, &notFound):
		response.WriteFailure(w, r, http.StatusNotFound, response.CodeNotFound, notFound.Error(), nil)
	case errors.As(err, &opFailed):
		response.WriteFailure(w, r, http.StatusBadRequest, response.CodeOperationFailed, opFailed.Error(), nil)
	case errors.Is(err, ErrCapabilityUnavailable):
		response.WriteFailure(w, r, http.StatusServiceUnavailable, response.CodeCapabilityUnavailable, err.Error(), nil)
	case errors.As(err, &maxBytes):
		response.WriteFailure(w, r, http.StatusRequestEntityTooLarge, response.CodePayloadTooLarge,
			fmt.Sprintf("request body exceeds %d bytes", maxBytes.Limit), nil)
	default:
		if logger != nil {
			logger.Error("Request failed", err, map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"request_id": response.RequestIDFromContext(r.Context()),
			})
		}
		response.WriteFailure(w, r, http.StatusInternalServerError, response.CodeInternalError, "internal server error", nil)
	}
}
