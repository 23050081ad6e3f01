package authclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrConflict matches an APIError for a username that already exists.
	ErrConflict = errors.New("credential already exists")
	// ErrNotFound matches an APIError for an unknown username.
	ErrNotFound = errors.New("credential not found")
)

// APIError is a non-success response from the auth service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth service: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("auth service: %d %s", e.StatusCode, e.Message)
}

// Is lets callers classify responses with errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

func parseErrorResponse(status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)
	return &APIError{StatusCode: status, Message: payload.Error}
}
