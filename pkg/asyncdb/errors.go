package asyncdb

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	_, err := conn.Execute(ctx, "SELECT 1")
//	if errors.Is(err, asyncdb.ErrConnClosed) {
//	    // Handle operating on a closed connection
//	}
var (
	// ErrConnClosed indicates an operation on a closed (or never opened)
	// connection. Nothing is enqueued; the caller fails immediately.
	ErrConnClosed = errors.New("connection closed")

	// ErrCursorClosed indicates an operation on a closed cursor.
	ErrCursorClosed = errors.New("cursor closed")

	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates the underlying client failed to open
	// a connection.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrExecutionFailed indicates SQL execution failed.
	ErrExecutionFailed = errors.New("execution failed")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Check for sentinel errors
	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrConnClosed), errors.Is(err, ErrCursorClosed):
		return ExitUsageError
	case errors.Is(err, ErrExecutionFailed):
		return ExitExecutionFailed
	}

	// Check for common connection error patterns
	errStr := err.Error()
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
