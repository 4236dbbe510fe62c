package types

import "context"

// Row is one result row. Values are positional, in the order of the select
// list, as returned by the driver.
type Row []any

// Result describes the outcome of a statement that returns no rows.
type Result struct {
	RowsAffected int64
	LastInsertID int64 // Zero when the driver does not report one.
}

// Executor is the opaque statement execution capability the entity manager
// runs on. Connection pooling and drivers live behind it.
type Executor interface {
	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, query string, args ...any) (Result, error)

	// Query runs a statement and returns every row it produced.
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
}

// Backend is an Executor with an attach/detach lifecycle.
type Backend interface {
	Executor

	// Attach opens the backend described by config. Returns
	// ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent. After Detach,
	// Exec and Query return ErrBackendDetached.
	Detach() error
}
