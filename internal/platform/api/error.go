package api

import "net/http"

// ErrorResponse wraps errors the gateway raises itself (malformed input,
// rate limiting, draining). Upstream failures use the handlers' own shape.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// WriteError writes the envelope with an explicit status.
func WriteError(w http.ResponseWriter, status int, e APIError) {
	WriteJSON(w, status, ErrorResponse{Error: e})
}

// BadRequest is 400: the request could not be read.
func BadRequest(w http.ResponseWriter, code, message, requestID string, details map[string]any) {
	WriteError(w, http.StatusBadRequest, APIError{Code: code, Message: message, Details: details, RequestID: requestID})
}

// RateLimited is 429.
func RateLimited(w http.ResponseWriter, code, message, requestID string, details map[string]any) {
	WriteError(w, http.StatusTooManyRequests, APIError{Code: code, Message: message, Details: details, RequestID: requestID})
}

// Unavailable is 503, used by /readyz while draining.
func Unavailable(w http.ResponseWriter, code, message, requestID string) {
	WriteError(w, http.StatusServiceUnavailable, APIError{Code: code, Message: message, RequestID: requestID})
}
