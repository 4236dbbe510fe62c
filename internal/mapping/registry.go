package mapping

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/mesh-intelligence/rowmap/pkg/types"
)

// Registry caches one descriptor per mapped type for the life of the
// process. It is safe for concurrent use: the first request for a type
// builds the descriptor under that type's sync.Once, and concurrent callers
// block on the same build and receive the same descriptor or error.
type Registry struct {
	mu      sync.Mutex
	entries map[reflect.Type]*registryEntry
}

type registryEntry struct {
	once sync.Once
	md   *EntityMetadata
	err  error
}

// Default is the process-wide registry.
var Default = NewRegistry()

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[reflect.Type]*registryEntry)}
}

// Of returns the descriptor of t, building it on first use. Pointer types
// resolve to their element type. Mapping failures are cached like
// descriptors, so a broken type fails the same way on every call.
func (r *Registry) Of(t reflect.Type) (*EntityMetadata, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", types.ErrInvalidData)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	r.mu.Lock()
	e, ok := r.entries[t]
	if !ok {
		e = &registryEntry{}
		r.entries[t] = e
	}
	r.mu.Unlock()

	e.once.Do(func() {
		e.md, e.err = newEntityMetadata(r, t)
	})
	return e.md, e.err
}

// Register builds and validates the descriptor of each type, including the
// eager join graph reachable from it. Programs call it at startup so mapping
// errors surface before the first unit of work.
func (r *Registry) Register(ts ...reflect.Type) error {
	for _, t := range ts {
		md, err := r.Of(t)
		if err != nil {
			return err
		}
		if _, err := md.ColumnNamesWithAlias(); err != nil {
			return err
		}
	}
	return nil
}

// Len reports how many types have been requested.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Of returns the descriptor of t from the Default registry.
func Of(t reflect.Type) (*EntityMetadata, error) {
	return Default.Of(t)
}

// For returns the descriptor of T from the Default registry.
func For[T any]() (*EntityMetadata, error) {
	return Default.Of(reflect.TypeFor[T]())
}
