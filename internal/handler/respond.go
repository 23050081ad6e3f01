package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vds/vds-go/internal/logging"
	"github.com/vds/vds-go/internal/middleware"
	"github.com/vds/vds-go/internal/service"
)

// retryAfterSeconds is advertised when the auth service is unavailable.
const retryAfterSeconds = "5"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// decodeBody reads a JSON request body capped at 1MB. On failure it writes
// the error response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("request body too large"))
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return false
	}
	return true
}

// writeServiceError maps the service error kinds onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrDependencyFailure):
		w.Header().Set("Retry-After", retryAfterSeconds)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse("auth service unavailable, retry later"))
	default:
		logging.FromContext(r.Context()).Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
	}
}

// callerMay reports whether the authenticated caller may act on key.
func callerMay(r *http.Request, key string) bool {
	if middleware.IsServiceCaller(r.Context()) {
		return true
	}
	username, ok := middleware.UsernameFromContext(r.Context())
	return ok && username == key
}
