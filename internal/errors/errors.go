// Package apperrors defines structured application error types,
// allowing for a clear distinction between error classes (configuration,
// transform, server, validation) and for carrying the underlying cause.
//
// Error Wrapping Guidelines:
// This package follows Go's error wrapping conventions using fmt.Errorf with %w.
// All error types implement the Unwrap() method to support errors.Is() and errors.As().
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorTimeout  = 2   // Indicates the operation timed out.
	ExitErrorMismatch = 3   // Indicates a round-trip verification mismatch.
	ExitErrorConfig   = 4   // Indicates a configuration error.
	ExitErrorDevice   = 5   // Indicates a device allocation or execution failure.
	ExitErrorCanceled = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// ─── Transform error kinds ──────────────────────────────────────────────────

// Sentinel errors identifying the failure classes of a transform call.
// Concrete errors returned by the engine wrap exactly one of these, so
// callers match them with errors.Is.
var (
	// ErrInvalidDomainSize reports a length that is not a power of two or
	// exceeds the two-adicity of the field.
	ErrInvalidDomainSize = errors.New("invalid domain size")
	// ErrDeviceNotFound reports a device id outside the available range.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrAllocationFailure reports that the device could not hold the buffer.
	ErrAllocationFailure = errors.New("device allocation failure")
	// ErrDeviceExecutionFailure reports a kernel or transfer failure.
	ErrDeviceExecutionFailure = errors.New("device execution failure")
	// ErrInversionOfZero reports an attempt to invert the zero element.
	ErrInversionOfZero = errors.New("inversion of zero")
)

// TransformError carries the context of a failed transform call.
// Kind is one of the sentinel errors above; Cause is the lower-level error
// (if any) reported by the device backend.
type TransformError struct {
	// Op names the failing step (e.g. "alloc", "launch", "validate").
	Op string
	// Kind is the sentinel describing the failure class.
	Kind error
	// Detail is a human-readable explanation.
	Detail string
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns a message of the form "ntt <op>: <kind>: <detail>: <cause>".
func (e *TransformError) Error() string {
	msg := "ntt " + e.Op + ": " + e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Is reports whether target is the Kind of this error.
func (e *TransformError) Is(target error) bool { return target == e.Kind }

// Unwrap returns the underlying cause.
func (e *TransformError) Unwrap() error { return e.Cause }

// NewTransformError creates a TransformError with a formatted detail message.
//
// Parameters:
//   - op: The failing step.
//   - kind: One of the transform sentinel errors.
//   - cause: The underlying error (can be nil).
//   - format: A format string for the detail (see fmt.Sprintf).
//   - a: Arguments for the format string.
//
// Returns:
//   - error: A new *TransformError.
func NewTransformError(op string, kind, cause error, format string, a ...any) error {
	return &TransformError{Op: op, Kind: kind, Detail: fmt.Sprintf(format, a...), Cause: cause}
}

// IsDeviceError reports whether err is an allocation or execution failure
// raised by a device backend.
func IsDeviceError(err error) bool {
	return errors.Is(err, ErrAllocationFailure) || errors.Is(err, ErrDeviceExecutionFailure)
}

// ─── Configuration and server errors ────────────────────────────────────────

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// MismatchError reports a benchmark case whose inverse transform did not
// restore the original input.
type MismatchError struct {
	// Case identifies the benchmark case.
	Case string
	// Index is the first differing position.
	Index int
}

func (e MismatchError) Error() string {
	return fmt.Sprintf("round-trip mismatch in %s at index %d", e.Case, e.Index)
}

// ServerError represents errors that occur in the HTTP server component.
// It wraps an underlying error with additional context specific to the server operation.
type ServerError struct {
	// Message is a descriptive message about the server error.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns the error message for a ServerError.
// It combines the descriptive message and the underlying cause if present.
func (e ServerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e ServerError) Unwrap() error { return e.Cause }

// NewServerError creates a new ServerError with a message and optional cause.
func NewServerError(message string, cause error) error {
	return ServerError{Message: message, Cause: cause}
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ValidationError represents an error due to invalid input validation.
// It is used for API request validation and configuration validation.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message describes why validation failed.
	Message string
	// Value is the invalid value (optional, may be nil).
	Value any
}

// Error returns the error message for a ValidationError.
func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string, value any) error {
	return ValidationError{Field: field, Message: message, Value: value}
}
