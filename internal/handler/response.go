package handler

// Every error response has the same shape:
//
//	{"error": "not_found", "message": "user not found with id abc123"}
//
// so a client can always read the same two fields, whatever the status.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/checkin-tracker/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable kind, e.g. "not_found"
	Message string `json:"message"`         // human-readable description
	Field   string `json:"field,omitempty"` // offending input for validation errors
}

// writeJSON sends data as JSON with the given status. Headers must be set
// before WriteHeader; anything set after the body starts is ignored.
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

// errorStatus maps an error to its HTTP status and kind. errors.Is walks
// the wrap chain, so fmt.Errorf("...: %w", appErr) still maps correctly.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrAlreadyMarked):
		return http.StatusConflict, "already_marked"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeError maps a domain error to a status code and sends it.
//
// Only *apperror.AppError messages reach the client. Anything else becomes a
// generic 500 because raw messages may carry SQL or file paths; the caller
// is expected to have logged the real error.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status, kind := errorStatus(err)
		if status != http.StatusInternalServerError {
			writeJSON(w, status, ErrorResponse{
				Error:   kind,
				Message: appErr.Message,
				Field:   appErr.Field,
			})
			return
		}
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// logAndWriteError logs unexpected errors before writing the response.
// Client errors (4xx) are not logged here; the request logger records them.
func logAndWriteError(logger *slog.Logger, w http.ResponseWriter, msg string, err error) {
	if status, _ := errorStatus(err); status == http.StatusInternalServerError {
		logger.Error(msg, slog.String("error", err.Error()))
	}
	writeError(w, err)
}
