package types

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is returned when the upstream forecast provider rejects or fails a request.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("synth api error %d: %s", e.StatusCode, e.Message)
}

// IsAuth reports whether the provider rejected our credentials.
func (e *APIError) IsAuth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsAuthError reports whether err wraps an authentication failure.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsAuth()
	}
	return false
}
