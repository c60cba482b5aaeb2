package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON or writeError so the API has one
// success shape (the resource itself) and one error shape:
//
//	{"error": "not_found", "message": "content not found with id 65f1..."}
//	{"error": "rate_limited", "message": "...", "retryAfter": 5}
//
// The browser client reads "retryAfter" to schedule a retry; proxies and
// generic HTTP clients read the Retry-After header, which carries the same
// number of seconds.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/content-studio/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error      string `json:"error"`                // Machine-readable error type (e.g., "not_found")
	Message    string `json:"message"`              // Human-readable description
	Field      string `json:"field,omitempty"`      // Offending input field, for validation errors
	RetryAfter int    `json:"retryAfter,omitempty"` // Seconds to wait, for 429s
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be set before the body is written.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorStatus maps a domain error to an HTTP status and error code.
//
// errors.Is walks the whole chain, so a service error like
// fmt.Errorf("creating content: %w", apperror.Internal(...)) still matches.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrInvalidID):
		return http.StatusBadRequest, "invalid_id"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrQuotaExceeded):
		return http.StatusTooManyRequests, "quota_exceeded"
	case errors.Is(err, apperror.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError maps a domain error to the appropriate HTTP response.
//
// Only the AppError's Message is ever shown to the client. Internal errors
// carry the wrapped cause for logging, but the raw text may contain SQL,
// hostnames or provider payloads, so 500s always get a generic message.
func writeError(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)

	resp := ErrorResponse{
		Error:   code,
		Message: "An internal error occurred",
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) && status != http.StatusInternalServerError {
		resp.Message = appErr.Message
		resp.Field = appErr.Field
		if appErr.RetryAfter > 0 {
			resp.RetryAfter = int(appErr.RetryAfter.Seconds())
			w.Header().Set("Retry-After", strconv.Itoa(resp.RetryAfter))
		}
	}

	writeJSON(w, status, resp)
}
