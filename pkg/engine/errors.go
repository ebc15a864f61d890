package engine

import (
	"errors"
	"fmt"
)

// ErrorClass classifies an engine error for reporting and recovery.
type ErrorClass string

const (
	// ErrorClassValidation indicates malformed or unsafe input. Never
	// fatal to a batch: the offending entry is reported and skipped.
	ErrorClassValidation ErrorClass = "validation"

	// ErrorClassConflict indicates a state conflict the user must
	// resolve, such as trying a plugin already declared with a
	// different specification.
	ErrorClassConflict ErrorClass = "conflict"

	// ErrorClassIO indicates a failed read, write, or rename on the
	// state file or rc file. Always surfaced, never swallowed.
	ErrorClassIO ErrorClass = "io"

	// ErrorClassCollaborator indicates a fetcher or loader failure.
	// The affected entry is skipped; remaining entries continue.
	ErrorClassCollaborator ErrorClass = "collaborator"
)

// EngineError is a classified error with subject context.
type EngineError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Subject is the specification or plugin name involved, if any.
	Subject string `json:"subject,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	msg := e.Message
	if e.Subject != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Subject)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", e.Class, msg, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Class, msg)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is implements error equality for errors.Is.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// WithSubject adds subject context to an error.
func (e *EngineError) WithSubject(subject string) *EngineError {
	e.Subject = subject
	return e
}

// WithCode adds an error code to an error.
func (e *EngineError) WithCode(code string) *EngineError {
	e.Code = code
	return e
}

// NewValidationError creates a validation-class error.
func NewValidationError(message string, err error) *EngineError {
	return &EngineError{Class: ErrorClassValidation, Message: message, Err: err}
}

// NewConflictError creates a conflict-class error.
func NewConflictError(message string, err error) *EngineError {
	return &EngineError{Class: ErrorClassConflict, Message: message, Err: err}
}

// NewIOError creates an io-class error.
func NewIOError(message string, err error) *EngineError {
	return &EngineError{Class: ErrorClassIO, Message: message, Err: err}
}

// NewCollaboratorError creates a collaborator-class error.
func NewCollaboratorError(message string, err error) *EngineError {
	return &EngineError{Class: ErrorClassCollaborator, Message: message, Err: err}
}

// CodeOf extracts the engine error code from err, or "".
func CodeOf(err error) string {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsClass reports whether err carries the given class.
func IsClass(err error, class ErrorClass) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class == class
	}
	return false
}

// Common error codes.
const (
	ErrCodeInvalidSpec     = "INVALID_SPEC"
	ErrCodeAlreadyDeclared = "ALREADY_DECLARED"
	ErrCodeNotExperimental = "NOT_EXPERIMENTAL"
	ErrCodeFetchFailed     = "FETCH_FAILED"
	ErrCodeLoadFailed      = "LOAD_FAILED"
	ErrCodeStateIO         = "STATE_IO"
	ErrCodeRCFileIO        = "RC_FILE_IO"
)
