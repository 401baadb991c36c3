// Package asyncdb bridges concurrent callers to a synchronous database
// client that is not safe for concurrent use.
//
// Each logical connection owns exactly one worker goroutine. Every
// operation on a Conn or Cursor handle is wrapped in a request, pushed to
// the connection's FIFO queue, and executed by the worker against the
// underlying client. Results travel back through a one-shot completion
// channel awaited on the caller's goroutine, so the client object is only
// ever touched from its worker and operations from one connection never
// overlap in time.
//
// Guarantees:
//   - Requests from one connection execute strictly in submission order.
//   - At most one request per connection executes at any instant,
//     including requests issued through cursors derived from it.
//   - Independent connections make progress concurrently.
//   - An error from one request surfaces only to the caller awaiting it;
//     later requests on the same connection are unaffected.
//
// The synchronous client is described by the Driver, ClientConn and
// ClientCursor interfaces. Adapters for concrete clients live in
// sibling packages (pkg/sqlite, pkg/postgres).
package asyncdb
