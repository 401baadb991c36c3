package asyncdb

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Operation completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // Usage error (closed handle, invalid arguments)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration
	ExitConnectionError = 11 // Failed to connect to database
	ExitExecutionFailed = 13 // SQL execution failed
)

const (
	// DefaultIterChunkSize is the number of rows fetched per request when
	// iterating a cursor with Rows.
	DefaultIterChunkSize = 64

	// DefaultArraySize is the number of rows fetched by FetchMany when the
	// caller passes a size of zero or less.
	DefaultArraySize = 1
)
