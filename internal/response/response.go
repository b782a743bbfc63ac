/*-------------------------------------------------------------------------
 *
 * response.go
 *    Uniform JSON response envelopes
 *
 * Every API response, success or failure, is wrapped in an envelope that
 * echoes the request method, URL and request id.
 *
 *-------------------------------------------------------------------------
 */

package response

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/neurondb/NeuronFlow/internal/validation"
)

/* Envelope statuses */
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

/* Failure codes */
const (
	CodeValidationFailed      = "ValidationFailed"
	CodeNotFound              = "NotFound"
	CodeMethodNotAllowed      = "MethodNotAllowed"
	CodeOperationFailed       = "OperationFailed"
	CodeCapabilityUnavailable = "CapabilityUnavailable"
	CodePayloadTooLarge       = "PayloadTooLarge"
	CodeUnauthorized          = "Unauthorized"
	CodeRateLimited           = "RateLimited"
	CodeInternalError         = "InternalError"
)

type requestIDKeyType string

const requestIDKey requestIDKeyType = "request_id"

/* ContextWithRequestID stores the request id in ctx */
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

/* RequestIDFromContext returns the request id, or "" */
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// RequestInfo echoes the request that produced a response
type RequestInfo struct {
	Method    string `json:"Method"`
	Url       string `json:"Url"`
	RequestId string `json:"RequestId,omitempty"`
}

// Success is the success envelope
type Success struct {
	Status   string      `json:"Status"`
	Message  string      `json:"Message"`
	HttpCode int         `json:"HttpCode"`
	Request  RequestInfo `json:"Request"`
	Data     interface{} `json:"Data"`
}

// Failure is the error envelope
type Failure struct {
	Status   string                  `json:"Status"`
	Message  string                  `json:"Message"`
	HttpCode int                     `json:"HttpCode"`
	Code     string                  `json:"Code"`
	Request  RequestInfo             `json:"Request"`
	Errors   []validation.FieldError `json:"Errors,omitempty"`
}

func requestInfo(r *http.Request) RequestInfo {
	return RequestInfo{
		Method:    r.Method,
		Url:       r.URL.RequestURI(),
		RequestId: RequestIDFromContext(r.Context()),
	}
}

// WriteSuccess writes a success envelope
func WriteSuccess(w http.ResponseWriter, r *http.Request, statusCode int, message string, data interface{}) {
	writeJSON(w, statusCode, Success{
		Status:   StatusSuccess,
		Message:  message,
		HttpCode: statusCode,
		Request:  requestInfo(r),
		Data:     data,
	})
}

// WriteFailure writes an error envelope
func WriteFailure(w http.ResponseWriter, r *http.Request, statusCode int, code, message string, errs []validation.FieldError) {
	writeJSON(w, statusCode, Failure{
		Status:   StatusFailure,
		Message:  message,
		HttpCode: statusCode,
		Code:     code,
		Request:  requestInfo(r),
		Errors:   errs,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}
