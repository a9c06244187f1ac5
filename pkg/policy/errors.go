package policy

import (
	"errors"
	"fmt"
)

// ErrorClass classifies a reconciliation failure.
type ErrorClass string

const (
	// ErrorClassInvalidInput indicates the caller handed the engine a
	// malformed operation list. No processing is performed.
	ErrorClassInvalidInput ErrorClass = "invalid_input"

	// ErrorClassInternalLogic indicates an invariant expected to hold for
	// well-formed input was violated. This points at a bug in the upstream
	// diff stage rather than a transient condition; it is never retried.
	ErrorClassInternalLogic ErrorClass = "internal_logic"
)

// Error is a classified policy-engine error.
//
// Both classes abort the whole Apply call: emitting a partially
// reconciled action set against a live package database is worse than
// refusing to act at all.
type Error struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Operation is the operation kind being processed, if applicable.
	Operation string `json:"operation,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Class, e.Message)
	if e.Operation != "" {
		msg = fmt.Sprintf("[%s] %s (operation=%s)", e.Class, e.Message, e.Operation)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Class == t.Class
}

// NewInvalidInputError creates a new invalid-input error.
func NewInvalidInputError(message string, err error) *Error {
	return &Error{
		Class:   ErrorClassInvalidInput,
		Message: message,
		Err:     err,
	}
}

// NewInternalLogicError creates a new internal-logic error.
func NewInternalLogicError(message string, err error) *Error {
	return &Error{
		Class:   ErrorClassInternalLogic,
		Message: message,
		Err:     err,
	}
}

// WithOperation adds operation-kind context to an error.
func (e *Error) WithOperation(kind string) *Error {
	e.Operation = kind
	return e
}

// IsInvalidInput returns true if the error is classified as invalid input.
func IsInvalidInput(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == ErrorClassInvalidInput
	}
	return false
}

// IsInternalLogic returns true if the error is classified as an
// internal-logic violation.
func IsInternalLogic(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == ErrorClassInternalLogic
	}
	return false
}
