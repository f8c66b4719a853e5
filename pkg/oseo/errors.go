package oseo

import (
	"errors"
	"fmt"
)

// ErrNilHTTPClient indicates a nil HTTP client was provided.
var ErrNilHTTPClient = errors.New("oseo: http client cannot be nil")

// APIError is returned for any non-2xx response of the REST API.
type APIError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Body == "" {
		return fmt.Sprintf("oseo: %s %s: status %d", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("oseo: %s %s: status %d: %s", e.Method, e.URL, e.Status, e.Body)
}

// Conflict reports whether the resource already existed.
func (e *APIError) Conflict() bool {
	return e != nil && e.Status == 409
}
