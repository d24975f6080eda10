// Package database provides the storage abstraction for the club portal.
//
// The Database interface wraps SurrealDB so repositories only deal with
// SurrealQL strings and variable maps:
//   - Query: returns the raw per-statement results
//   - QueryOne: returns the first record of the first statement
//   - Execute: runs mutations and discards results
//
// # Transactions
//
// Transactions are BATCH-BASED. Statements added to an AtomicBatch (or a
// Transaction from BeginTx) are accumulated and sent as one
// BEGIN TRANSACTION / COMMIT TRANSACTION block, so they succeed or fail
// together. Nothing is visible to other statements in the batch until commit.
//
// # Errors
//
//	if errors.Is(err, database.ErrDuplicate) {
//	    // unique index violated
//	}
package database

import (
	"context"
	"errors"
)

// Standard errors for database operations.
// Use errors.Is() to check these error types in calling code.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a unique index violation (e.g. email or handle taken).
	ErrDuplicate = errors.New("duplicate record")

	// ErrConnection indicates a failure to connect to or communicate with the database.
	ErrConnection = errors.New("database connection error")

	// ErrQuery indicates a query execution failure.
	ErrQuery = errors.New("query error")
)

// Database defines the interface for database operations
type Database interface {
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Query executes a query and returns one entry per statement
	Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)

	// QueryOne executes a query and returns a single record
	QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)

	// Execute runs a query without returning results (for mutations)
	Execute(ctx context.Context, query string, vars map[string]interface{}) error

	BeginTx(ctx context.Context) (Transaction, error)
}

// Transaction accumulates statements that are committed as one block
type Transaction interface {
	Execute(ctx context.Context, query string, vars map[string]interface{}) error
	Commit() error
	Rollback() error
}

// Config holds database configuration
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
}
