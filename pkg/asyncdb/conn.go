package asyncdb

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type connState int

const (
	stateConnecting connState = iota
	stateOpen
	stateClosed
)

// Conn is the caller-facing handle for one logical database connection.
//
// Conn owns the worker goroutine and the request queue. Every method that
// touches the underlying client enqueues a request and blocks the calling
// goroutine until the worker completes it; calls from any number of
// goroutines are serialized in submission order against the client.
//
// Thread-Safety: safe for concurrent use. Each method call is one queued
// request; concurrent callers interleave at request granularity.
//
// Lifecycle:
//  1. Created by Connect(); the real client connect runs as the worker's
//     first unit of work, never on the caller's goroutine.
//  2. Used via Execute/Commit/Rollback/Cursor and derived cursors.
//  3. Cleaned up via Close() (idempotent).
//
// Example usage:
//
//	conn, err := asyncdb.Connect(ctx, sqlite.Driver{}, ":memory:")
//	if err != nil {
//	    return err
//	}
//	defer conn.Close(ctx)
type Conn struct {
	id            string
	connector     func() (ClientConn, error)
	queue         *requestQueue
	done          chan struct{}
	logger        Logger
	iterChunkSize int

	mu    sync.Mutex
	state connState
}

// Connect starts a worker goroutine, opens the underlying client
// connection on it, and returns the connected handle.
//
// The target string and options configured via WithClientOption are passed
// through to the driver opaquely. If the open fails the worker is already
// stopped and the client's error is returned verbatim; there is nothing to
// close.
//
// Panics if driver is nil (programmer error, fail-fast).
func Connect(ctx context.Context, driver Driver, target string, opts ...Option) (*Conn, error) {
	if driver == nil {
		panic("driver cannot be nil")
	}

	c := &Conn{
		id:            uuid.NewString(),
		queue:         newRequestQueue(),
		done:          make(chan struct{}),
		logger:        nopLogger{},
		iterChunkSize: DefaultIterChunkSize,
		state:         stateConnecting,
	}

	options := map[string]string{}
	for _, opt := range opts {
		opt(c, options)
	}
	c.connector = func() (ClientConn, error) {
		return driver.Connect(target, options)
	}

	open := newRequest(nil)
	go c.run(open)

	fut := &Future[struct{}]{out: open.out}
	if _, err := fut.Await(ctx); err != nil {
		// Either the open failed (worker already exited) or the caller
		// gave up waiting. The stop request makes the worker release the
		// client in the latter case; in the former it is drained unread.
		c.mu.Lock()
		c.state = stateClosed
		c.mu.Unlock()
		c.queue.push(newStopRequest())
		return nil, err
	}

	c.mu.Lock()
	c.state = stateOpen
	c.mu.Unlock()
	c.logger.Verbose("asyncdb conn %s: connected to %q", c.id, target)
	return c, nil
}

// With connects, runs fn with the connection, and guarantees the
// connection is closed on every exit path. The close error is reported
// only when fn itself succeeded.
func With(ctx context.Context, driver Driver, target string, fn func(conn *Conn) error, opts ...Option) error {
	conn, err := Connect(ctx, driver, target, opts...)
	if err != nil {
		return err
	}
	fnErr := fn(conn)
	closeErr := conn.Close(ctx)
	if fnErr != nil {
		return fnErr
	}
	return closeErr
}

// submit enqueues fn as one request and returns a typed future for its
// result. It never blocks: the queue is unbounded and the state check plus
// push happen under the handle lock, so no request can slip in behind the
// stop request.
func submit[T any](c *Conn, fn func(cc ClientConn) (T, error)) (*Future[T], error) {
	req := newRequest(func(cc ClientConn) (any, error) {
		return fn(cc)
	})

	c.mu.Lock()
	if c.state != stateOpen {
		c.mu.Unlock()
		return nil, ErrConnClosed
	}
	c.queue.push(req)
	c.mu.Unlock()

	return &Future[T]{out: req.out}, nil
}

// Submit enqueues fn for execution on the worker goroutine and returns a
// future, without waiting for completion. This is the raw dispatcher
// surface behind the typed methods: use it to keep several requests in
// flight from one caller, or to run client-specific calls the generic
// handle does not expose. fn receives the worker-owned client connection
// and must not retain it.
func (c *Conn) Submit(fn func(cc ClientConn) (any, error)) (*Future[any], error) {
	return submit(c, fn)
}

// await is the common suspend point for the typed methods.
func await[T any](ctx context.Context, fut *Future[T], err error) (T, error) {
	if err != nil {
		var zero T
		return zero, err
	}
	return fut.Await(ctx)
}

// Execute runs the statement and returns a cursor handle positioned on its
// result set. The cursor shares this connection's worker; closing the
// cursor does not affect the connection.
//
// The caller is responsible for closing the returned cursor:
//
//	cur, err := conn.Execute(ctx, "SELECT x FROM t")
//	if err != nil {
//	    return err
//	}
//	defer cur.Close(ctx)
func (c *Conn) Execute(ctx context.Context, sql string, args ...any) (*Cursor, error) {
	fut, err := submit(c, func(cc ClientConn) (ClientCursor, error) {
		return cc.Execute(sql, args)
	})
	client, err := await(ctx, fut, err)
	if err != nil {
		return nil, err
	}
	return newCursor(c, client), nil
}

// ExecuteMany runs the statement once per argument set, in order, as a
// single request, and returns the cursor handle.
func (c *Conn) ExecuteMany(ctx context.Context, sql string, argSets [][]any) (*Cursor, error) {
	fut, err := submit(c, func(cc ClientConn) (ClientCursor, error) {
		cur, err := cc.Cursor()
		if err != nil {
			return nil, err
		}
		if err := cur.ExecuteMany(sql, argSets); err != nil {
			_ = cur.Close()
			return nil, err
		}
		return cur, nil
	})
	client, err := await(ctx, fut, err)
	if err != nil {
		return nil, err
	}
	return newCursor(c, client), nil
}

// ExecuteInsert runs an insert and returns its first result row (for
// clients where inserts report generated values via RETURNING), or nil
// when the statement produced no rows. Statement and fetch run as one
// request, so no other operation can interleave between them.
func (c *Conn) ExecuteInsert(ctx context.Context, sql string, args ...any) (Row, error) {
	fut, err := submit(c, func(cc ClientConn) (Row, error) {
		cur, err := cc.Execute(sql, args)
		if err != nil {
			return nil, err
		}
		defer cur.Close()
		return cur.FetchOne()
	})
	return await(ctx, fut, err)
}

// ExecuteFetchAll runs the statement and returns all of its rows as one
// request. Convenient for small result sets where cursor management is
// noise.
func (c *Conn) ExecuteFetchAll(ctx context.Context, sql string, args ...any) ([]Row, error) {
	fut, err := submit(c, func(cc ClientConn) ([]Row, error) {
		cur, err := cc.Execute(sql, args)
		if err != nil {
			return nil, err
		}
		defer cur.Close()
		return cur.FetchAll()
	})
	return await(ctx, fut, err)
}

// Cursor creates a bare cursor handle with no active result set.
func (c *Conn) Cursor(ctx context.Context) (*Cursor, error) {
	fut, err := submit(c, func(cc ClientConn) (ClientCursor, error) {
		return cc.Cursor()
	})
	client, err := await(ctx, fut, err)
	if err != nil {
		return nil, err
	}
	return newCursor(c, client), nil
}

// Commit commits the current transaction.
func (c *Conn) Commit(ctx context.Context) error {
	fut, err := submit(c, func(cc ClientConn) (struct{}, error) {
		return struct{}{}, cc.Commit()
	})
	_, err = await(ctx, fut, err)
	return err
}

// Rollback rolls back the current transaction.
func (c *Conn) Rollback(ctx context.Context) error {
	fut, err := submit(c, func(cc ClientConn) (struct{}, error) {
		return struct{}{}, cc.Rollback()
	})
	_, err = await(ctx, fut, err)
	return err
}

// Close stops the connection: it enqueues the stop request (which closes
// the underlying client), waits for it, and leaves the worker terminated.
// Requests already in the queue complete first; requests submitted after
// Close fail with ErrConnClosed.
//
// Close is idempotent: the second and later calls return nil immediately
// without enqueuing anything. It is safe to call from failure-handling
// paths.
func (c *Conn) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.state == stateClosed {
		c.mu.Unlock()
		return nil
	}
	c.state = stateClosed
	stop := newStopRequest()
	c.queue.push(stop)
	c.mu.Unlock()

	fut := &Future[struct{}]{out: stop.out}
	_, err := fut.Await(ctx)
	return err
}

// Done is closed when the worker goroutine has terminated. Mainly useful
// in tests and shutdown paths that need to observe full teardown.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// ID returns the connection's correlation id used in log output.
func (c *Conn) ID() string {
	return c.id
}
