package main

import "fmt"

// Exit codes for the statusdash CLI.
const (
	ExitOK           = 0 // Command succeeded.
	ExitInvalidArgs  = 1 // Bad flags, config or journal.
	ExitFetchFailure = 3 // The status endpoint could not be read.
)

// exitCodeError carries a non-zero exit code through cobra's error handling.
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }

// ExitCode returns the exit code for this error.
func (e *exitCodeError) ExitCode() int { return e.code }

// exitError creates an exitCodeError. If msg is empty, the error message is
// set to a generic description of the exit code.
func exitError(code int, format string, args ...any) *exitCodeError {
	msg := fmt.Sprintf(format, args...)
	if msg == "" {
		switch code {
		case ExitFetchFailure:
			msg = "statusdash: fetch failed"
		default:
			msg = "statusdash: error"
		}
	}
	return &exitCodeError{code: code, msg: msg}
}
