package commands

import (
	"github.com/plugsync/plugsync/pkg/engine"
)

// Exit codes, stable for scripting.
const (
	ExitOK              = 0
	ExitInvalidSpec     = 1
	ExitAlreadyDeclared = 2
	ExitFetchFailed     = 3
	ExitLoadFailed      = 4
)

// ExitError carries a process exit code out of a command. main inspects
// it and exits with Code.
type ExitError struct {
	Code int
	Err  error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "exit"
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitFor maps an engine error to its documented exit code.
func exitFor(err error) *ExitError {
	code := ExitInvalidSpec
	switch engine.CodeOf(err) {
	case engine.ErrCodeAlreadyDeclared:
		code = ExitAlreadyDeclared
	case engine.ErrCodeFetchFailed:
		code = ExitFetchFailed
	case engine.ErrCodeLoadFailed:
		code = ExitLoadFailed
	}
	return &ExitError{Code: code, Err: err}
}
