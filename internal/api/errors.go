package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is returned when a request is rejected and no session
	// is available to refresh.
	ErrUnauthorized = errors.New("api: unauthorized")
	// ErrSessionExpired is returned when a token refresh failed. The stored
	// session has been cleared.
	ErrSessionExpired = errors.New("api: session expired")
	// ErrUnavailable wraps transport failures reaching the backend.
	ErrUnavailable = errors.New("api: backend unavailable")
	// ErrNotFound matches 404 responses.
	ErrNotFound = errors.New("api: not found")
)

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api: backend returned %d", e.Code)
	}
	return fmt.Sprintf("api: backend returned %d: %s", e.Code, e.Body)
}

// Is lets errors.Is match 404 and 401 responses against the sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	case ErrUnauthorized:
		return e.Code == http.StatusUnauthorized
	}
	return false
}
