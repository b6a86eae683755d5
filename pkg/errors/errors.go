// Package errors provides structured error types for flowgraph.
//
// Every component reports failures as an [*Error] carrying a machine-readable
// [Code], so hosts can react to categories of failure without matching on
// message text:
//
//   - VALIDATION_ERROR: malformed input records (collected, never fatal)
//   - INITIALIZATION_ERROR: missing or zero-sized container
//   - TRANSITION_ERROR: a color-flow animation step failed
//   - SUBSCRIBER_ERROR: an event handler failed
//   - BRIDGE_ERROR: the host bridge did not become ready
//   - BUSY: a full-replace update is already in flight
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInitialization, "container has zero size")
//	if errors.Is(err, errors.ErrCodeInitialization) {
//	    // report to host
//	}
//
//	err := errors.Wrap(errors.ErrCodeBridge, ctx.Err(), "handshake timed out after %s", d)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Engine errors
	ErrCodeValidation     Code = "VALIDATION_ERROR"
	ErrCodeInitialization Code = "INITIALIZATION_ERROR"
	ErrCodeTransition     Code = "TRANSITION_ERROR"
	ErrCodeSubscriber     Code = "SUBSCRIBER_ERROR"
	ErrCodeBridge         Code = "BRIDGE_ERROR"
	ErrCodeBusy           Code = "BUSY"

	// Input errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Resource errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Transport errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// PanicError wraps a value recovered from a panicking callback.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Recovered converts a recovered panic value into an error.
// Returns nil when v is nil.
func Recovered(v any) error {
	if v == nil {
		return nil
	}
	if err, ok := v.(error); ok {
		return err
	}
	return &PanicError{Value: v}
}
