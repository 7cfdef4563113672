// Package database provides SQLite connection management and schema
// migrations for authd.
//
// The DB wrapper opens the database with foreign keys enforced, optional WAL
// mode, and a single-writer connection pool suited to SQLite. Migrations are
// embedded into the binary by the migrations package and applied in version
// order, each in its own transaction.
package database
