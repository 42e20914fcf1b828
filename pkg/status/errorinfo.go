package status

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorInfo describes a failed request to the admin status API.
type ErrorInfo struct {
	// StatusCode contains the HTTP status code.
	StatusCode int

	// Message describes the failure to the user.
	Message string
}

// Retryable returns whether the request may succeed if retried, such as if
// the node hasn't yet received init.
func (e *ErrorInfo) Retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

func (e *ErrorInfo) Error() string {
	return fmt.Sprintf(
		"%s (%d): %s",
		strings.ToLower(http.StatusText(e.StatusCode)),
		e.StatusCode,
		e.Message,
	)
}
