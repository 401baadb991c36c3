package asyncdb

// Logger provides a pluggable logging interface for asyncdb operations.
// Implementations must be safe for concurrent use by multiple goroutines:
// the worker goroutine and caller goroutines log interleaved.
type Logger interface {
	// Verbose logs detailed diagnostic information.
	// Only logged when verbose mode is enabled.
	Verbose(format string, args ...interface{})

	// Info logs informational messages about normal operations.
	// Always logged regardless of verbose mode.
	Info(format string, args ...interface{})

	// Error logs error messages.
	// Always logged regardless of verbose mode.
	Error(format string, args ...interface{})
}

// nopLogger discards everything. It is the default when no logger is
// configured via WithLogger.
type nopLogger struct{}

func (nopLogger) Verbose(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})    {}
func (nopLogger) Error(string, ...interface{})   {}
