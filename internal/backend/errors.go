package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrResultNotReady is returned when the result endpoint answers 202 because
// the analysis is still queued or running.
var ErrResultNotReady = errors.New("analysis result not ready")

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Endpoint   string
	// Message is the backend's "error" field, empty when absent.
	Message string
	Body    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend %s: %s (status %d)", e.Endpoint, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("backend %s: unexpected status %d", e.Endpoint, e.StatusCode)
}

// NotFound reports a 404 for an unknown analysis id.
func (e *APIError) NotFound() bool { return e.StatusCode == http.StatusNotFound }

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
