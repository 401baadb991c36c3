package asyncdb

import "sync"

// requestQueue is the one data structure shared between caller goroutines
// and the worker: an unbounded MPSC FIFO. Push never blocks the caller;
// popWait blocks only the worker.
type requestQueue struct {
	mu    sync.Mutex
	items []*request

	// wake is a coalescing signal: pushes publish at most one pending
	// token, popWait rechecks the slice after each token. Spurious
	// wakeups are harmless.
	wake chan struct{}
}

func newRequestQueue() *requestQueue {
	return &requestQueue{wake: make(chan struct{}, 1)}
}

// push appends r to the tail. Safe for concurrent use from any goroutine.
func (q *requestQueue) push(r *request) {
	q.mu.Lock()
	q.items = append(q.items, r)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// popWait removes and returns the head, blocking until one is available.
// Only the worker goroutine calls popWait.
func (q *requestQueue) popWait() *request {
	for {
		if r, ok := q.tryPop(); ok {
			return r
		}
		<-q.wake
	}
}

// tryPop removes and returns the head without blocking.
func (q *requestQueue) tryPop() (*request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}
	r := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return r, true
}

// len reports the number of queued requests.
func (q *requestQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
