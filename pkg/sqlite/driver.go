package sqlite

import (
	"context"
	"database/sql/driver"
	"fmt"
	"net/url"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/vvka-141/asyncdb/pkg/asyncdb"
)

// Driver opens SQLite client connections for asyncdb. The target is a
// database path or ":memory:"; options are appended to the DSN query
// string opaquely (see the go-sqlite3 documentation for supported keys).
type Driver struct{}

var _ asyncdb.Driver = Driver{}

// Connect opens a raw SQLite connection. Called only from the worker
// goroutine of the connection being opened.
func (Driver) Connect(target string, options map[string]string) (asyncdb.ClientConn, error) {
	dsn := target
	if len(options) > 0 {
		values := url.Values{}
		for k, v := range options {
			values.Set(k, v)
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + values.Encode()
	}

	d := &sqlite3.SQLiteDriver{}
	conn, err := d.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", target, err)
	}
	return &clientConn{conn: conn.(*sqlite3.SQLiteConn)}, nil
}

// clientConn implements asyncdb.ClientConn over one *sqlite3.SQLiteConn.
type clientConn struct {
	conn *sqlite3.SQLiteConn
}

func (c *clientConn) Execute(sql string, args []any) (asyncdb.ClientCursor, error) {
	cur := &clientCursor{conn: c.conn}
	if err := cur.Execute(sql, args); err != nil {
		return nil, err
	}
	return cur, nil
}

// Commit commits the open transaction. A commit with no open transaction
// is a no-op, matching the DB-API behavior the handle layer mirrors.
func (c *clientConn) Commit() error {
	if c.conn.AutoCommit() {
		return nil
	}
	_, err := c.exec("COMMIT", nil)
	return err
}

// Rollback rolls back the open transaction, or does nothing without one.
func (c *clientConn) Rollback() error {
	if c.conn.AutoCommit() {
		return nil
	}
	_, err := c.exec("ROLLBACK", nil)
	return err
}

func (c *clientConn) Cursor() (asyncdb.ClientCursor, error) {
	return &clientCursor{conn: c.conn}, nil
}

func (c *clientConn) Close() error {
	return c.conn.Close()
}

func (c *clientConn) exec(sql string, args []any) (driver.Result, error) {
	named, err := namedValues(args)
	if err != nil {
		return nil, err
	}
	return c.conn.ExecContext(context.Background(), sql, named)
}

// namedValues converts caller arguments to ordinal driver values,
// normalizing the Go types the driver does not accept directly.
func namedValues(args []any) ([]driver.NamedValue, error) {
	if len(args) == 0 {
		return nil, nil
	}
	named := make([]driver.NamedValue, len(args))
	for i, arg := range args {
		v, err := normalizeValue(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		named[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return named, nil
}

func normalizeValue(arg any) (driver.Value, error) {
	switch v := arg.(type) {
	case nil, int64, float64, bool, []byte, string, time.Time:
		return v, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case float32:
		return float64(v), nil
	default:
		return nil, fmt.Errorf("unsupported argument type %T", arg)
	}
}
