package sqlite

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/vvka-141/asyncdb/pkg/asyncdb"
)

// clientCursor implements asyncdb.ClientCursor. SQLite has no separate
// cursor object, so the cursor carries the active result set (driver.Rows)
// plus the metadata of the last statement.
type clientCursor struct {
	conn *sqlite3.SQLiteConn

	rows      driver.Rows
	cols      []asyncdb.Column
	exhausted bool

	affected int64
	lastID   int64
	hasLast  bool
}

func (c *clientCursor) Execute(sql string, args []any) error {
	if err := c.reset(); err != nil {
		return err
	}

	named, err := namedValues(args)
	if err != nil {
		return err
	}

	if returnsRows(sql) {
		rows, err := c.conn.QueryContext(context.Background(), sql, named)
		if err != nil {
			return err
		}
		c.rows = rows
		c.cols = describe(rows)
		c.affected = -1
		return nil
	}

	res, err := c.conn.ExecContext(context.Background(), sql, named)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil {
		c.affected = n
	}
	if id, err := res.LastInsertId(); err == nil {
		c.lastID = id
		c.hasLast = true
	}
	return nil
}

func (c *clientCursor) ExecuteMany(sql string, argSets [][]any) error {
	if returnsRows(sql) {
		return errors.New("sqlite: ExecuteMany cannot run statements that return rows")
	}
	if err := c.reset(); err != nil {
		return err
	}

	var total int64
	for i, args := range argSets {
		named, err := namedValues(args)
		if err != nil {
			return fmt.Errorf("argument set %d: %w", i+1, err)
		}
		res, err := c.conn.ExecContext(context.Background(), sql, named)
		if err != nil {
			return fmt.Errorf("argument set %d: %w", i+1, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
		if id, err := res.LastInsertId(); err == nil {
			c.lastID = id
			c.hasLast = true
		}
	}
	c.affected = total
	return nil
}

func (c *clientCursor) FetchOne() (asyncdb.Row, error) {
	if c.rows == nil || c.exhausted {
		return nil, nil
	}

	dest := make([]driver.Value, len(c.rows.Columns()))
	if err := c.rows.Next(dest); err != nil {
		if errors.Is(err, io.EOF) {
			c.exhausted = true
			return nil, nil
		}
		return nil, err
	}

	row := make(asyncdb.Row, len(dest))
	for i, v := range dest {
		// The driver may reuse byte buffers between Next calls.
		if b, ok := v.([]byte); ok {
			row[i] = append([]byte(nil), b...)
		} else {
			row[i] = v
		}
	}
	return row, nil
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

func (c *clientCursor) LastInsertID() (int64, bool) {
	return c.lastID, c.hasLast
}

func (c *clientCursor) Close() error {
	return c.reset()
}

// reset drops the current result set and clears last-statement metadata.
func (c *clientCursor) reset() error {
	var err error
	if c.rows != nil {
		err = c.rows.Close()
		c.rows = nil
	}
	c.cols = nil
	c.exhausted = false
	c.affected = -1
	c.lastID = 0
	c.hasLast = false
	return err
}

func describe(rows driver.Rows) []asyncdb.Column {
	names := rows.Columns()
	cols := make([]asyncdb.Column, len(names))
	typer, hasTypes := rows.(driver.RowsColumnTypeDatabaseTypeName)
	for i, name := range names {
		cols[i].Name = name
		if hasTypes {
			cols[i].TypeName = typer.ColumnTypeDatabaseTypeName(i)
		}
	}
	return cols
}

// returnsRows reports whether the statement produces a result set, which
// decides between the driver's query and exec paths. SQLite accepts any
// statement on either path, but only exec reports affected rows and the
// last insert id.
func returnsRows(sql string) bool {
	rest := strings.TrimSpace(sql)
	// Skip leading line and block comments.
	for {
		switch {
		case strings.HasPrefix(rest, "--"):
			if i := strings.IndexByte(rest, '\n'); i >= 0 {
				rest = strings.TrimSpace(rest[i+1:])
				continue
			}
			return false
		case strings.HasPrefix(rest, "/*"):
			if i := strings.Index(rest, "*/"); i >= 0 {
				rest = strings.TrimSpace(rest[i+2:])
				continue
			}
			return false
		}
		break
	}

	word := rest
	if i := strings.IndexAny(rest, " \t\r\n(;"); i >= 0 {
		word = rest[:i]
	}
	switch strings.ToUpper(word) {
	case "SELECT", "VALUES", "PRAGMA", "EXPLAIN", "WITH":
		return true
	}

	// DML with a RETURNING clause produces rows as well.
	return containsKeyword(sql, "RETURNING")
}

// containsKeyword reports whether kw appears as a standalone word,
// case-insensitively. Good enough for statement classification; a
// RETURNING inside a string literal misclassifies the statement to the
// query path, which still executes it correctly.
func containsKeyword(sql, kw string) bool {
	upper := strings.ToUpper(sql)
	for start := 0; ; {
		i := strings.Index(upper[start:], kw)
		if i < 0 {
			return false
		}
		i += start
		before := i == 0 || !isWordByte(upper[i-1])
		after := i+len(kw) == len(upper) || !isWordByte(upper[i+len(kw)])
		if before && after {
			return true
		}
		start = i + len(kw)
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
