package asyncdb

import (
	"context"
	"fmt"
)

// outcome is the result of one executed request: a value or an error,
// never both meaningful at once.
type outcome struct {
	val any
	err error
}

// request is one queued unit of work. Immutable after creation and
// consumed exactly once by the worker. A request has no identity beyond
// its queue position; FIFO order is the only invariant that matters.
type request struct {
	// fn runs on the worker goroutine against the worker-owned client.
	// nil for the stop request.
	fn func(cc ClientConn) (any, error)

	// stop marks the terminal request: the worker closes the client,
	// reports the outcome, and exits its loop.
	stop bool

	// out receives exactly one outcome. The buffer lets the worker
	// complete a request whose awaiter has already abandoned it without
	// blocking.
	out chan outcome
}

func newRequest(fn func(cc ClientConn) (any, error)) *request {
	return &request{fn: fn, out: make(chan outcome, 1)}
}

func newStopRequest() *request {
	return &request{stop: true, out: make(chan outcome, 1)}
}

// Future is a one-shot handle to the result of a queued request.
//
// Await may be called at most once. Abandoning a Future (cancelling the
// context, or never awaiting) does not cancel the request: once handed to
// the worker it runs to completion and its result is dropped.
type Future[T any] struct {
	out <-chan outcome
}

// Await blocks the calling goroutine until the worker completes the
// request, returning the exact value and error the client call produced.
// Error identity is preserved: errors.Is and errors.As see the client's
// original error.
//
// If ctx is cancelled first, Await returns ctx.Err() and the request's
// eventual result is discarded.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case o := <-f.out:
		if o.err != nil {
			return zero, o.err
		}
		if o.val == nil {
			return zero, nil
		}
		v, ok := o.val.(T)
		if !ok {
			return zero, fmt.Errorf("asyncdb: request produced %T, caller expected %T", o.val, zero)
		}
		return v, nil
	}
}
