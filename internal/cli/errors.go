// Package cli provides shared configuration and utilities for the sequel CLI.
package cli

import (
	"errors"
	"fmt"
	"io"
)

// Exit codes.
const (
	ExitSuccess   = 0
	ExitGeneral   = 1
	ExitConfig    = 2
	ExitDBConnect = 3
	ExitQuery     = 4
	ExitTooBusy   = 5
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode prints the error to w and returns the process exit code for it.
func ExitCode(w io.Writer, err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		fmt.Fprintln(w, "Error:", exitErr.Error())
		return exitErr.Code
	}
	fmt.Fprintln(w, "Error:", err)
	return ExitGeneral
}

// ConfigError creates an ExitError with ExitConfig code.
func ConfigError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitConfig, Message: msg, Err: err}
}

// DBConnectError creates an ExitError with ExitDBConnect code.
func DBConnectError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitDBConnect, Message: msg, Err: err}
}

// QueryError creates an ExitError with ExitQuery code.
func QueryError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitQuery, Message: msg, Err: err}
}

// TooBusyError creates an ExitError with ExitTooBusy code.
func TooBusyError(msg string) *ExitError {
	return &ExitError{Code: ExitTooBusy, Message: msg}
}
