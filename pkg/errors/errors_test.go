package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: NewValidationError("email", "Email is required.", nil), want: http.StatusBadRequest},
		{name: "wrapped validation", err: fmt.Errorf("bind: %w", NewValidationError("id", "Invalid user ID.", nil)), want: http.StatusBadRequest},
		{name: "internal", err: NewInternalError("boom", nil), want: http.StatusInternalServerError},
		{name: "plain error", err: errors.New("connection refused"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestValidationError(t *testing.T) {
	_, cause := strconv.ParseInt("abc", 10, 64)
	err := NewValidationError("id", "Invalid user ID.", cause)

	assert.Equal(t, "Invalid user ID.", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "id", err.Field)
}

func TestPublicMessage(t *testing.T) {
	validation := fmt.Errorf("update: %w", NewValidationError("id", "ID mismatch.", nil))
	internal := NewInternalError("failed to list users", errors.New("password authentication failed"))

	assert.Equal(t, "ID mismatch.", PublicMessage(validation, "fallback"))
	assert.Equal(t, "fallback", PublicMessage(internal, "fallback"))
	assert.Equal(t, "fallback", PublicMessage(errors.New("raw"), "fallback"))
}

func TestInternalError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := NewInternalError("failed to list users", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to list users: dial tcp: timeout", err.Error())
}
