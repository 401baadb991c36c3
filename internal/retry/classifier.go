package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// PostgreSQL error codes for transient conditions
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	// Class 40 - Transaction Rollback
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"

	// Class 55 - Object Not In Prerequisite State
	pgCodeLockNotAvailable = "55P03"
)

// ConnectClassifier implements ErrorClassifier for connection-establishment
// failures. It recognizes transient PostgreSQL server states, transient
// SQLite lock states, and network-level errors common to both drivers.
type ConnectClassifier struct{}

// NewConnectClassifier creates a new connection error classifier.
func NewConnectClassifier() *ConnectClassifier {
	return &ConnectClassifier{}
}

// IsTransient determines if an error is temporary and retryable.
func (c *ConnectClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return c.isTransientPgError(pgErr)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return c.isTransientSQLiteError(sqliteErr)
	}

	if c.isNetworkError(err) {
		return true
	}

	return c.isConnectionError(err)
}

// isTransientPgError checks PostgreSQL error codes for transient conditions.
func (c *ConnectClassifier) isTransientPgError(pgErr *pgconn.PgError) bool {
	code := pgErr.Code

	// Class 08 - Connection Exception
	if strings.HasPrefix(code, "08") {
		return true
	}

	// Class 53 - Insufficient Resources (too many connections, out of memory)
	if strings.HasPrefix(code, "53") {
		return true
	}

	// Class 57 - Operator Intervention (admin shutdown, cannot connect now)
	if strings.HasPrefix(code, "57") {
		return true
	}

	switch code {
	case pgCodeSerializationFailure,
		pgCodeDeadlockDetected,
		pgCodeLockNotAvailable:
		return true
	}

	return false
}

// isTransientSQLiteError checks SQLite result codes for transient lock
// contention. SQLITE_BUSY and SQLITE_LOCKED clear once the competing
// writer finishes.
func (c *ConnectClassifier) isTransientSQLiteError(sqliteErr sqlite3.Error) bool {
	switch sqliteErr.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return true
	}
	return false
}

// isNetworkError checks for network-level errors.
func (c *ConnectClassifier) isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Temporary() || opErr.Timeout() {
			return true
		}

		if opErr.Err != nil {
			if errors.Is(opErr.Err, syscall.ECONNREFUSED) ||
				errors.Is(opErr.Err, syscall.ECONNRESET) ||
				errors.Is(opErr.Err, syscall.ENETUNREACH) ||
				errors.Is(opErr.Err, syscall.EHOSTUNREACH) {
				return true
			}
		}
	}

	return false
}

// isConnectionError checks error text for connection failure patterns that
// surface without a typed error (for example from the pgconn handshake).
func (c *ConnectClassifier) isConnectionError(err error) bool {
	errMsg := strings.ToLower(err.Error())

	transientPatterns := []string{
		"connection refused",
		"connection reset",
		"connection timeout",
		"connection failure",
		"no such host",
		"network is unreachable",
		"i/o timeout",
		"broken pipe",
		"too many connections",
		"server closed the connection",
		"unexpected eof",
		"database is locked",
	}

	for _, pattern := range transientPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}
