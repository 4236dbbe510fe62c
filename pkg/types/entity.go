package types

import (
	"context"
	"reflect"
)

//go:generate go tool stringer -type=EntityState,LoadState -output=state_string.go

// Entity marks a struct as mapped. Embed it as the first field; its `orm`
// tag may override the table name:
//
//	types.Entity `orm:"table:users"`
type Entity struct{}

// EntityState is the lifecycle state of an instance relative to one
// EntityManager.
type EntityState int

const (
	Transient EntityState = iota // Not associated with any manager.
	Managed                      // Tracked in the identity map with a snapshot.
	Removed                      // Deleted; any further operation is invalid.
	Detached                     // Was managed by a manager that has been closed.
)

// EntityManager is the unit-of-work contract. Implementations are scoped to a
// single logical operation and are not safe for concurrent use.
type EntityManager interface {
	// Find returns the managed instance for (typ, id), loading it with one
	// joined query if it is not in the identity map yet.
	// Returns ErrNotFound if no row matches.
	Find(ctx context.Context, typ reflect.Type, id any) (any, error)

	// GetReference returns a deferred reference to (typ, id) without issuing
	// a query. The reference resolves through Find on first Get.
	GetReference(typ reflect.Type, id any) (*Lazy[any], error)

	// Persist inserts a transient entity and makes it managed.
	Persist(ctx context.Context, entity any) error

	// Merge writes the changed field columns of an entity back to its row.
	Merge(ctx context.Context, entity any) error

	// Remove deletes a managed entity's row and marks the entity removed.
	Remove(ctx context.Context, entity any) error

	// State reports the lifecycle state of entity relative to this manager.
	State(entity any) EntityState

	// Close ends the unit of work: every tracked entity becomes Detached and
	// further operations fail with ErrClosed.
	Close() error
}
