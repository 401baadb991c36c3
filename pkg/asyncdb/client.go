package asyncdb

// Row is a single result row, positionally ordered like the statement's
// result columns.
type Row = []any

// Column describes one result column.
type Column struct {
	// Name is the column name as reported by the client.
	Name string

	// TypeName is the client's name for the column type.
	// Empty when the client does not expose type information.
	TypeName string
}

// Driver opens synchronous client connections. Implementations are called
// exclusively from a connection's worker goroutine and may therefore be
// backed by clients that are not safe for concurrent use.
//
// The target string and options map are passed through opaquely; asyncdb
// does not interpret them.
type Driver interface {
	// Connect opens a synchronous connection to target.
	Connect(target string, options map[string]string) (ClientConn, error)
}

// ClientConn is one synchronous client connection. asyncdb guarantees that
// all methods are invoked from a single goroutine (the connection's
// worker), one call at a time, in request submission order.
// Implementations do not need any internal locking.
type ClientConn interface {
	// Execute runs the statement and returns a cursor positioned on its
	// result set. Statements without a result set still return a cursor;
	// its fetch methods report exhaustion immediately.
	Execute(sql string, args []any) (ClientCursor, error)

	// Commit commits the current transaction.
	Commit() error

	// Rollback rolls back the current transaction.
	Rollback() error

	// Cursor creates a bare cursor with no active result set.
	Cursor() (ClientCursor, error)

	// Close releases the connection. Called at most once, always as the
	// final call on the connection.
	Close() error
}

// ClientCursor is one synchronous client cursor. Like ClientConn, every
// method runs on the owning connection's worker goroutine.
type ClientCursor interface {
	// Execute runs the statement on this cursor, replacing any previous
	// result set.
	Execute(sql string, args []any) error

	// ExecuteMany runs the statement once per argument set, in order.
	ExecuteMany(sql string, argSets [][]any) error

	// FetchOne returns the next row, or (nil, nil) once the result set is
	// exhausted. Exhaustion is a sentinel, not an error, and is reported
	// repeatedly on further calls.
	FetchOne() (Row, error)

	// FetchMany returns up to n next rows. A short or empty slice means
	// the result set is exhausted.
	FetchMany(n int) ([]Row, error)

	// FetchAll returns all remaining rows.
	FetchAll() ([]Row, error)

	// Description describes the columns of the current result set, or nil
	// when there is none.
	Description() []Column

	// RowCount reports the number of rows affected by the last statement,
	// or -1 when unknown.
	RowCount() int64

	// LastInsertID reports the identifier generated by the last insert.
	// The bool is false when the client has no such notion or no insert
	// has run.
	LastInsertID() (int64, bool)

	// Close releases the cursor and its result set.
	Close() error
}
