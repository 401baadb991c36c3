package asyncdb

import (
	"context"
	"errors"
	"iter"
	"sync/atomic"
)

// Cursor is the caller-facing handle for one result-producing statement.
//
// A cursor never owns a worker: every operation is routed through the
// parent connection's queue, so cursor and connection operations are
// serialized together and the underlying client cursor is only ever
// touched on the worker goroutine. That includes "simple" metadata reads
// like Description and RowCount, which are queued getter requests rather
// than direct field access.
//
// Thread-Safety: safe for concurrent use, with the same request-level
// interleaving as Conn.
type Cursor struct {
	conn *Conn

	// client is only dereferenced inside request functions, which the
	// worker runs. Handle methods never touch it directly.
	client ClientCursor

	closed atomic.Bool
}

func newCursor(conn *Conn, client ClientCursor) *Cursor {
	return &Cursor{conn: conn, client: client}
}

// submitCursor is like submit but fails fast on a closed cursor handle.
func submitCursor[T any](c *Cursor, fn func(cur ClientCursor) (T, error)) (*Future[T], error) {
	if c.closed.Load() {
		return nil, ErrCursorClosed
	}
	return submit(c.conn, func(ClientConn) (T, error) {
		return fn(c.client)
	})
}

// Execute runs the statement on this cursor, replacing any previous result
// set, and returns the cursor itself for chaining:
//
//	rows, err := cur.Execute(ctx, "SELECT x FROM t")
func (c *Cursor) Execute(ctx context.Context, sql string, args ...any) (*Cursor, error) {
	fut, err := submitCursor(c, func(cur ClientCursor) (struct{}, error) {
		return struct{}{}, cur.Execute(sql, args)
	})
	if _, err = await(ctx, fut, err); err != nil {
		return nil, err
	}
	return c, nil
}

// ExecuteMany runs the statement once per argument set, in order, as a
// single request.
func (c *Cursor) ExecuteMany(ctx context.Context, sql string, argSets [][]any) (*Cursor, error) {
	fut, err := submitCursor(c, func(cur ClientCursor) (struct{}, error) {
		return struct{}{}, cur.ExecuteMany(sql, argSets)
	})
	if _, err = await(ctx, fut, err); err != nil {
		return nil, err
	}
	return c, nil
}

// FetchOne returns the next row, or (nil, nil) once the result set is
// exhausted. Exhaustion is reported repeatedly, never as an error.
func (c *Cursor) FetchOne(ctx context.Context) (Row, error) {
	fut, err := submitCursor(c, func(cur ClientCursor) (Row, error) {
		return cur.FetchOne()
	})
	return await(ctx, fut, err)
}

// FetchMany returns up to size next rows. A size of zero or less fetches
// DefaultArraySize rows. The returned slice is shorter than size (possibly
// empty) only when the result set runs out.
func (c *Cursor) FetchMany(ctx context.Context, size int) ([]Row, error) {
	if size <= 0 {
		size = DefaultArraySize
	}
	fut, err := submitCursor(c, func(cur ClientCursor) ([]Row, error) {
		return cur.FetchMany(size)
	})
	return await(ctx, fut, err)
}

// FetchAll returns all remaining rows, possibly none.
func (c *Cursor) FetchAll(ctx context.Context) ([]Row, error) {
	fut, err := submitCursor(c, func(cur ClientCursor) ([]Row, error) {
		return cur.FetchAll()
	})
	return await(ctx, fut, err)
}

// Rows returns a lazy iterator over the remaining rows. Each refill is one
// queued FetchMany request for the connection's iter chunk size, so rows
// are produced without buffering the full result set. The sequence is
// finite and not restartable: once exhausted, a new Execute is required to
// iterate again.
//
// A fetch failure is yielded as the final element's error, after which the
// sequence stops:
//
//	for row, err := range cur.Rows(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    use(row)
//	}
func (c *Cursor) Rows(ctx context.Context) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		for {
			rows, err := c.FetchMany(ctx, c.conn.iterChunkSize)
			if err != nil {
				yield(nil, err)
				return
			}
			if len(rows) == 0 {
				return
			}
			for _, row := range rows {
				if !yield(row, nil) {
					return
				}
			}
		}
	}
}

// Description describes the columns of the current result set, or nil
// when there is none. The read is a queued request like any other.
func (c *Cursor) Description(ctx context.Context) ([]Column, error) {
	fut, err := submitCursor(c, func(cur ClientCursor) ([]Column, error) {
		return cur.Description(), nil
	})
	return await(ctx, fut, err)
}

// RowCount reports the rows affected by the cursor's last statement, or -1
// when the client does not know.
func (c *Cursor) RowCount(ctx context.Context) (int64, error) {
	fut, err := submitCursor(c, func(cur ClientCursor) (int64, error) {
		return cur.RowCount(), nil
	})
	return await(ctx, fut, err)
}

// LastInsertID reports the identifier generated by the cursor's last
// insert. The bool is false when the client has no such notion.
func (c *Cursor) LastInsertID(ctx context.Context) (int64, bool, error) {
	type lastID struct {
		id int64
		ok bool
	}
	fut, err := submitCursor(c, func(cur ClientCursor) (lastID, error) {
		id, ok := cur.LastInsertID()
		return lastID{id: id, ok: ok}, nil
	})
	v, err := await(ctx, fut, err)
	return v.id, v.ok, err
}

// Close releases the underlying client cursor. Idempotent: the second and
// later calls return nil without enqueuing anything. Closing the parent
// connection first is not an error here; the close request then fails with
// ErrConnClosed, which Close reports as nil since the client cursor died
// with its connection.
func (c *Cursor) Close(ctx context.Context) error {
	if c.closed.Swap(true) {
		return nil
	}
	fut, err := submit(c.conn, func(ClientConn) (struct{}, error) {
		return struct{}{}, c.client.Close()
	})
	if err != nil {
		// Connection already closed; the client cursor is gone with it.
		return nil
	}
	if _, err := fut.Await(ctx); err != nil {
		if errors.Is(err, ErrConnClosed) {
			return nil
		}
		return err
	}
	return nil
}
