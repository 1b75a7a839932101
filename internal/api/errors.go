package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnavailable means the backend could not be reached at all:
	// connection refused, DNS failure, timeout.
	ErrUnavailable = errors.New("server unavailable")
	// ErrUnauthorized means the request requires a valid session and none
	// could be established, even after a refresh attempt.
	ErrUnauthorized = errors.New("authentication required")
	// ErrNotFound means the requested resource does not exist on the server.
	ErrNotFound = errors.New("not found")
)

// APIError is returned for non-2xx responses that do not map to one of the
// sentinel errors above. Detail carries the backend's human-readable message.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Status, e.Detail)
}

// errorDetail extracts the message from an error body. The backend wraps
// messages as {"detail": "..."}; anything else is passed through verbatim.
func errorDetail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return strings.TrimSpace(string(body))
}
