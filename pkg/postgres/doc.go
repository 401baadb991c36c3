// Package postgres adapts jackc/pgx to the asyncdb client boundary.
//
// The adapter uses a plain *pgx.Conn, not a pool. pgx documents the
// plain connection as not safe for concurrent use, which is precisely the
// contract asyncdb's worker provides: serialized, ordered access from a
// single goroutine.
//
// PostgreSQL allows one active statement per connection, so executing a
// new statement while an earlier cursor still has unread rows fails with
// the driver's "conn busy" error. Drain or close cursors before starting
// the next statement.
package postgres
