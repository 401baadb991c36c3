package asyncdb

import "fmt"

// run is the worker loop: the single goroutine that owns the underlying
// client connection for its entire lifetime. Opening the client is the
// first unit of work (reported through open.out), then requests execute
// one at a time in FIFO order until the stop request closes the client.
//
// A request failure is captured into that request's outcome only; it never
// stops the loop or leaks into other requests. After the stop request the
// loop fails anything still queued with ErrConnClosed and terminates.
func (c *Conn) run(open *request) {
	defer close(c.done)

	client, err := c.connector()
	if err != nil {
		c.logger.Verbose("asyncdb conn %s: open failed: %v", c.id, err)
		open.out <- outcome{err: err}
		c.failPending()
		return
	}
	c.logger.Verbose("asyncdb conn %s: client connection opened", c.id)
	open.out <- outcome{}

	for {
		req := c.queue.popWait()

		if req.stop {
			err := client.Close()
			if err != nil {
				c.logger.Error("asyncdb conn %s: client close failed: %v", c.id, err)
			} else {
				c.logger.Verbose("asyncdb conn %s: client connection closed", c.id)
			}
			req.out <- outcome{err: err}
			break
		}

		val, err := runGuarded(req.fn, client)
		if err != nil {
			c.logger.Verbose("asyncdb conn %s: request failed: %v", c.id, err)
		}
		req.out <- outcome{val: val, err: err}
	}

	c.failPending()
}

// runGuarded invokes fn and converts a panic in the client into an error
// outcome, so a misbehaving client cannot crash the host process.
func runGuarded(fn func(cc ClientConn) (any, error), client ClientConn) (val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("asyncdb: client panic: %v", r)
		}
	}()
	return fn(client)
}

// failPending completes every request still in the queue with
// ErrConnClosed. Called after the worker stops; a request enqueued by a
// caller racing with Close still gets a deterministic answer instead of a
// hang.
func (c *Conn) failPending() {
	for {
		req, ok := c.queue.tryPop()
		if !ok {
			return
		}
		req.out <- outcome{err: ErrConnClosed}
	}
}
