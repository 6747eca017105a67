package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	verr := NewValidationError("amount", "must be positive")
	verr.Add("description", "must be at least 3 characters")

	require.True(t, verr.HasErrors())
	assert.True(t, errors.Is(verr, ErrValidation))
	assert.Contains(t, verr.Error(), "amount: must be positive")
	assert.Contains(t, verr.Error(), "description: must be at least 3 characters")

	msg, ok := verr.Field("amount")
	assert.True(t, ok)
	assert.Equal(t, "must be positive", msg)

	_, ok = verr.Field("date")
	assert.False(t, ok)

	wrapped := fmt.Errorf("append failed: %w", verr)
	var target *ValidationError
	require.True(t, errors.As(wrapped, &target))
	assert.Len(t, target.Fields, 2)

	var empty *ValidationError
	assert.False(t, empty.HasErrors())
}

func TestContractViolation(t *testing.T) {
	err := NewContractViolation("confidence %.2f out of range", 1.1)
	assert.True(t, errors.Is(err, ErrContractViolation))
	assert.False(t, errors.Is(err, ErrBackendUnavailable))
	assert.Contains(t, err.Error(), "confidence 1.10 out of range")
}

func TestBackendError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewBackendError(cause)

	assert.True(t, errors.Is(err, ErrBackendUnavailable))
	assert.True(t, errors.Is(err, cause))
	assert.Nil(t, NewBackendError(nil))

	// Already classified errors pass through untouched.
	violation := NewContractViolation("missing category")
	assert.Same(t, violation, NewBackendError(violation))
	assert.Same(t, err, NewBackendError(err))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "rate limit", err: ErrRateLimit, want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "contract violation", err: NewContractViolation("bad"), want: false},
		{name: "retryable wrapper", err: &RetryableError{Err: errors.New("503"), Retryable: true}, want: true},
		{name: "non retryable wrapper", err: &RetryableError{Err: errors.New("401"), Retryable: false}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestUserError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewUserError("could not save transaction", cause)
	assert.Equal(t, "could not save transaction: disk full", err.Error())
	assert.True(t, errors.Is(err, cause))

	assert.Equal(t, "plain", NewUserError("plain", nil).Error())
}
