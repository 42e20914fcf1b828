package status

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorInfo(t *testing.T) {
	err := &ErrorInfo{
		StatusCode: http.StatusServiceUnavailable,
		Message:    "node not initialised",
	}
	assert.Equal(t, "service unavailable (503): node not initialised", err.Error())
	assert.True(t, err.Retryable())

	err = &ErrorInfo{
		StatusCode: http.StatusNotFound,
		Message:    "status not found",
	}
	assert.False(t, err.Retryable())
}
