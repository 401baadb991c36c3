package asyncdb

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// fakeResult scripts the outcome of executing one statement against the
// fake client.
type fakeResult struct {
	rows    []Row
	err     error
	cols    []Column
	affected int64
	lastID   int64
	hasLast  bool
}

// fakeDriver hands out fakeConns and records how often it was asked to
// connect.
type fakeDriver struct {
	mu         sync.Mutex
	connectErr error
	connects   int
	conns      []*fakeConn

	// script maps SQL text to its result. Unscripted statements succeed
	// with no rows.
	script map[string]fakeResult

	// connectDelay widens the race window between Connect returning the
	// handle and the worker finishing the open.
	connectDelay time.Duration
}

func (d *fakeDriver) Connect(target string, options map[string]string) (ClientConn, error) {
	if d.connectDelay > 0 {
		time.Sleep(d.connectDelay)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connects++
	if d.connectErr != nil {
		return nil, d.connectErr
	}
	conn := &fakeConn{script: d.script, target: target}
	d.conns = append(d.conns, conn)
	return conn, nil
}

func (d *fakeDriver) conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[i]
}

// fakeConn records every call in order and trips an overlap flag if two
// calls ever run concurrently, which would mean the worker failed to
// serialize access.
type fakeConn struct {
	mu     sync.Mutex
	target string
	script map[string]fakeResult
	calls  []string
	closes int

	running atomic.Bool
	overlap atomic.Bool

	// barrier, when non-nil, blocks the next Execute until released.
	// Used to hold the worker busy while callers keep submitting.
	barrier chan struct{}

	panicOn string // SQL that makes Execute panic
}

func (c *fakeConn) enter(call string) {
	if !c.running.CompareAndSwap(false, true) {
		c.overlap.Store(true)
	}
	c.mu.Lock()
	c.calls = append(c.calls, call)
	c.mu.Unlock()
	// Lengthen each call so overlapping use would actually be observed.
	time.Sleep(50 * time.Microsecond)
}

func (c *fakeConn) exit() {
	c.running.Store(false)
}

func (c *fakeConn) callLog() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *fakeConn) resultFor(sql string) (fakeResult, error) {
	if res, ok := c.script[sql]; ok {
		return res, res.err
	}
	return fakeResult{affected: -1}, nil
}

func (c *fakeConn) Execute(sql string, args []any) (ClientCursor, error) {
	c.enter("execute:" + sql)
	defer c.exit()
	if c.barrier != nil {
		b := c.barrier
		c.barrier = nil
		<-b
	}
	if sql == c.panicOn {
		panic("scripted panic: " + sql)
	}
	res, err := c.resultFor(sql)
	if err != nil {
		return nil, err
	}
	cur := &fakeCursor{conn: c}
	cur.load(res)
	return cur, nil
}

func (c *fakeConn) Commit() error {
	c.enter("commit")
	defer c.exit()
	return nil
}

func (c *fakeConn) Rollback() error {
	c.enter("rollback")
	defer c.exit()
	return nil
}

func (c *fakeConn) Cursor() (ClientCursor, error) {
	c.enter("cursor")
	defer c.exit()
	return &fakeCursor{conn: c}, nil
}

func (c *fakeConn) Close() error {
	c.enter("close")
	defer c.exit()
	c.mu.Lock()
	c.closes++
	c.mu.Unlock()
	return nil
}

type fakeCursor struct {
	conn *fakeConn

	rows    []Row
	pos     int
	cols    []Column
	affected int64
	lastID   int64
	hasLast  bool
	closed   bool
}

func (f *fakeCursor) load(res fakeResult) {
	f.rows = res.rows
	f.pos = 0
	f.cols = res.cols
	f.affected = res.affected
	f.lastID = res.lastID
	f.hasLast = res.hasLast
}

func (f *fakeCursor) Execute(sql string, args []any) error {
	f.conn.enter("cursor.execute:" + sql)
	defer f.conn.exit()
	res, err := f.conn.resultFor(sql)
	if err != nil {
		return err
	}
	f.load(res)
	return nil
}

func (f *fakeCursor) ExecuteMany(sql string, argSets [][]any) error {
	f.conn.enter(fmt.Sprintf("cursor.executemany:%s/%d", sql, len(argSets)))
	defer f.conn.exit()
	res, err := f.conn.resultFor(sql)
	if err != nil {
		return err
	}
	res.affected = int64(len(argSets))
	f.load(res)
	return nil
}

func (f *fakeCursor) FetchOne() (Row, error) {
	f.conn.enter("fetchone")
	defer f.conn.exit()
	if f.pos >= len(f.rows) {
		return nil, nil
	}
	row := f.rows[f.pos]
	f.pos++
	return row, nil
}

func (f *fakeCursor) FetchMany(n int) ([]Row, error) {
	f.conn.enter(fmt.Sprintf("fetchmany:%d", n))
	defer f.conn.exit()
	var out []Row
	for len(out) < n && f.pos < len(f.rows) {
		out = append(out, f.rows[f.pos])
		f.pos++
	}
	return out, nil
}

func (f *fakeCursor) FetchAll() ([]Row, error) {
	f.conn.enter("fetchall")
	defer f.conn.exit()
	out := append([]Row(nil), f.rows[f.pos:]...)
	f.pos = len(f.rows)
	return out, nil
}

func (f *fakeCursor) Description() []Column {
	f.conn.enter("description")
	defer f.conn.exit()
	return f.cols
}

func (f *fakeCursor) RowCount() int64 {
	f.conn.enter("rowcount")
	defer f.conn.exit()
	return f.affected
}

func (f *fakeCursor) LastInsertID() (int64, bool) {
	f.conn.enter("lastinsertid")
	defer f.conn.exit()
	return f.lastID, f.hasLast
}

func (f *fakeCursor) Close() error {
	f.conn.enter("cursor.close")
	defer f.conn.exit()
	f.closed = true
	return nil
}
