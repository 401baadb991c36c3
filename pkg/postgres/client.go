package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/asyncdb/pkg/asyncdb"
)

// Driver opens PostgreSQL client connections for asyncdb. The target is a
// pgx connection string (URL or keyword form); options are applied as
// server runtime parameters opaquely.
//
// Unlike the sqlite adapter, a connection supports only one open result set
// at a time: executing a new statement while an earlier cursor still has
// unread rows fails with pgx's "conn busy" error. Drain or close cursors
// before the next statement.
type Driver struct{}

var _ asyncdb.Driver = Driver{}

// Connect opens a plain pgx connection. Called only from the worker
// goroutine of the connection being opened.
func (Driver) Connect(target string, options map[string]string) (asyncdb.ClientConn, error) {
	cfg, err := pgx.ParseConfig(target)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	for k, v := range options {
		cfg.RuntimeParams[k] = v
	}

	conn, err := pgx.ConnectConfig(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", asyncdb.ErrConnectionFailed, err)
	}
	return &clientConn{conn: conn}, nil
}

// clientConn implements asyncdb.ClientConn over one *pgx.Conn.
type clientConn struct {
	conn *pgx.Conn
}

func (c *clientConn) Execute(sql string, args []any) (asyncdb.ClientCursor, error) {
	cur := &clientCursor{conn: c.conn}
	if err := cur.Execute(sql, args); err != nil {
		return nil, err
	}
	return cur, nil
}

// Commit forwards COMMIT verbatim. Outside a transaction PostgreSQL
// reports a warning, not an error, matching DB-API commit semantics.
func (c *clientConn) Commit() error {
	_, err := c.conn.Exec(context.Background(), "commit")
	return err
}

func (c *clientConn) Rollback() error {
	_, err := c.conn.Exec(context.Background(), "rollback")
	return err
}

func (c *clientConn) Cursor() (asyncdb.ClientCursor, error) {
	return &clientCursor{conn: c.conn}, nil
}

func (c *clientConn) Close() error {
	return c.conn.Close(context.Background())
}

// clientCursor implements asyncdb.ClientCursor. PostgreSQL reports rows
// and the affected-row count through the same result, so the cursor keeps
// the active pgx.Rows and captures the command tag once the result is
// drained or closed.
type clientCursor struct {
	conn *pgx.Conn

	rows      pgx.Rows
	cols      []asyncdb.Column
	exhausted bool
	affected  int64

	// buffered holds the first row, read eagerly by Execute to surface
	// execution errors at execute time.
	buffered []any
}

func (c *clientCursor) Execute(sql string, args []any) error {
	c.reset()

	// Query handles statements with and without result sets; statements
	// without rows simply exhaust immediately and report their command
	// tag.
	rows, err := c.conn.Query(context.Background(), sql, args...)
	if err != nil {
		return err
	}
	c.rows = rows
	c.cols = c.describe(rows)

	// pgx reports some execution errors only on the first read attempt.
	// Surface them here so Execute fails like a synchronous client would,
	// instead of on a later fetch.
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			c.reset()
			return err
		}
		c.finish()
		return nil
	}
	vals, err := rows.Values()
	if err != nil {
		c.reset()
		return err
	}
	c.buffered = vals
	return nil
}

func (c *clientCursor) ExecuteMany(sql string, argSets [][]any) error {
	c.reset()

	var total int64
	for i, args := range argSets {
		tag, err := c.conn.Exec(context.Background(), sql, args...)
		if err != nil {
			return fmt.Errorf("argument set %d: %w", i+1, err)
		}
		total += tag.RowsAffected()
	}
	c.affected = total
	return nil
}

func (c *clientCursor) FetchOne() (asyncdb.Row, error) {
	if c.buffered != nil {
		row := asyncdb.Row(c.buffered)
		c.buffered = nil
		return row, nil
	}
	if c.rows == nil || c.exhausted {
		return nil, nil
	}
	if !c.rows.Next() {
		err := c.rows.Err()
		c.finish()
		return nil, err
	}
	vals, err := c.rows.Values()
	if err != nil {
		return nil, err
	}
	return asyncdb.Row(vals), nil
}

func (c *clientCursor) FetchMany(n int) ([]asyncdb.Row, error) {
	var out []asyncdb.Row
	for len(out) < n {
		row, err := c.FetchOne()
		if err != nil {
			return nil, err
		}
		if row == nil {
			break
		}
		out = append(out, row)
	}
	return out, nil
}

func (c *clientCursor) FetchAll() ([]asyncdb.Row, error) {
	var out []asyncdb.Row
	for {
		row, err := c.FetchOne()
		if err != nil {
			return nil, err
		}
		if row == nil {
			return out, nil
		}
		out = append(out, row)
	}
}

func (c *clientCursor) Description() []asyncdb.Column {
	return c.cols
}

func (c *clientCursor) RowCount() int64 {
	return c.affected
}

// LastInsertID is not a PostgreSQL notion; use INSERT ... RETURNING.
func (c *clientCursor) LastInsertID() (int64, bool) {
	return 0, false
}

func (c *clientCursor) Close() error {
	c.reset()
	return nil
}

// finish closes the drained result set and captures its command tag.
func (c *clientCursor) finish() {
	if c.rows != nil {
		c.rows.Close()
		c.affected = c.rows.CommandTag().RowsAffected()
		c.rows = nil
	}
	c.exhausted = true
}

func (c *clientCursor) reset() {
	if c.rows != nil {
		c.rows.Close()
		c.rows = nil
	}
	c.cols = nil
	c.buffered = nil
	c.exhausted = false
	c.affected = -1
}

func (c *clientCursor) describe(rows pgx.Rows) []asyncdb.Column {
	fields := rows.FieldDescriptions()
	cols := make([]asyncdb.Column, len(fields))
	typeMap := c.conn.TypeMap()
	for i, fd := range fields {
		cols[i].Name = string(fd.Name)
		if dt, ok := typeMap.TypeForOID(fd.DataTypeOID); ok {
			cols[i].TypeName = dt.Name
		}
	}
	return cols
}
