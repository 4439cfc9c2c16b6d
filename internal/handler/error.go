package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/csnm/internal/domain"
)

// ErrorResponse writes an error response to the client.
// It maps domain error codes to HTTP status codes and writes the flat
// {"error": "<message>"} body the form client displays. Messages come from
// the catalog, never from the error itself.
func ErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, msgs Messages, err error) {
	// Extract structured info from error
	code := domain.ErrorCode(err)
	op := domain.ErrorOp(err)

	// Map to HTTP status
	status := ErrorCodeToHTTPStatus(code)

	// Log error with context
	logError(logger, r, err, code, op, status)

	writeJSON(w, status, map[string]string{"error": ErrorCodeToMessage(msgs, code)})
}

// ErrorWriter binds ErrorResponse to a logger and catalog for middleware
// that reports errors outside a handler.
func ErrorWriter(logger *slog.Logger, msgs Messages) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		ErrorResponse(w, r, logger, msgs, err)
	}
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.ETOOLARGE:
		return http.StatusRequestEntityTooLarge // 413
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests // 429
	case domain.ECONFIG, domain.EUNAVAILABLE, domain.EINTERNAL:
		return http.StatusInternalServerError // 500
	default:
		return http.StatusInternalServerError // 500
	}
}

// ErrorCodeToMessage picks the catalog message for a domain error code.
// Unknown codes get the generic server error message.
func ErrorCodeToMessage(msgs Messages, code string) string {
	switch code {
	case domain.EINVALID:
		return msgs.Validation
	case domain.ECONFIG:
		return msgs.Configuration
	case domain.ETOOLARGE:
		return msgs.TooLarge
	case domain.ERATELIMIT:
		return msgs.RateLimited
	default:
		return msgs.Dispatch
	}
}

// logError logs the error with appropriate level based on status code.
func logError(logger *slog.Logger, r *http.Request, err error, code, op string, status int) {
	attrs := []any{
		"error", err.Error(),
		"code", code,
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
	}

	// Add operation if present
	if op != "" {
		attrs = append(attrs, "op", op)
	}

	// Log level based on status code:
	// - 5xx errors are server-side issues
	// - 4xx errors are info (client errors, expected)
	if status >= 500 {
		logger.Error("server error", attrs...)
	} else if status >= 400 {
		logger.Info("client error", attrs...)
	}
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
