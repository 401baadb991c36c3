// Package sqlite adapts mattn/go-sqlite3 to the asyncdb client boundary.
//
// The adapter works at the database/sql/driver level: a raw SQLiteConn is
// exactly the kind of synchronous, single-caller client asyncdb exists to
// serialize, without the locking and pooling that database/sql would add
// on top. All methods are invoked from the owning connection's worker
// goroutine only.
package sqlite
