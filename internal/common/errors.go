// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Common application errors.
var (
	// Input errors.
	ErrValidation = errors.New("validation failed")

	// Storage errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Suggestion backend errors.
	ErrContractViolation  = errors.New("suggestion backend contract violation")
	ErrBackendUnavailable = errors.New("suggestion backend unavailable")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field that failed validation for one
// operation. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// Add records another invalid field.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any field was recorded.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// Field returns the message recorded for field, if any.
func (e *ValidationError) Field(field string) (string, bool) {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message, true
		}
	}
	return "", false
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return fmt.Sprintf("%v: %s", ErrValidation, strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ContractViolation reports a backend response that does not match the
// agreed request/response shape.
type ContractViolation struct {
	Reason string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("%v: %s", ErrContractViolation, e.Reason)
}

// Is makes errors.Is(err, ErrContractViolation) succeed.
func (e *ContractViolation) Is(target error) bool {
	return target == ErrContractViolation
}

// NewContractViolation creates a contract violation with a formatted reason.
func NewContractViolation(format string, args ...any) error {
	return &ContractViolation{Reason: fmt.Sprintf(format, args...)}
}

// BackendError wraps a timeout, transport or server failure of the
// suggestion backend.
type BackendError struct {
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%v: %v", ErrBackendUnavailable, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrBackendUnavailable) succeed.
func (e *BackendError) Is(target error) bool {
	return target == ErrBackendUnavailable
}

// NewBackendError wraps err as a BackendError unless it is already one or is
// a ContractViolation.
func NewBackendError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrBackendUnavailable) || errors.Is(err, ErrContractViolation) {
		return err
	}
	return &BackendError{Err: err}
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrContractViolation) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrRateLimit) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
