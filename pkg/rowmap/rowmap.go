// Package rowmap is the public entry point: it opens backends, starts
// units of work, and offers typed helpers over the reflect-based
// EntityManager contract in package types.
//
//	db, err := rowmap.Open(types.Config{Backend: types.BackendSQLite, DataDir: ".rowmap-db"})
//	if err != nil { ... }
//	defer db.Detach()
//
//	em := rowmap.NewManager(db)
//	defer em.Close()
//	order, err := rowmap.Find[Order](ctx, em, 42)
package rowmap

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/mesh-intelligence/rowmap/internal/entity"
	"github.com/mesh-intelligence/rowmap/internal/mapping"
	"github.com/mesh-intelligence/rowmap/internal/sqlite"
	"github.com/mesh-intelligence/rowmap/pkg/types"
)

// Version is the rowmap release.
const Version = "0.3.0"

// Database is an attached backend that can also run multi-statement
// scripts such as schema files.
type Database interface {
	types.Backend
	ExecScript(ctx context.Context, script string) error
	Config() types.Config
}

// NewBackend creates a detached backend. Call Attach before use.
func NewBackend() Database {
	return sqlite.NewBackend()
}

// Open creates a backend and attaches it with config.
func Open(config types.Config) (Database, error) {
	b := sqlite.NewBackend()
	if err := b.Attach(config); err != nil {
		return nil, err
	}
	return b, nil
}

// Manager is the unit of work returned by NewManager.
type Manager = entity.Manager

// Option configures a Manager.
type Option = entity.Option

// WithLogger replaces the manager's statement logger.
func WithLogger(l *slog.Logger) Option {
	return entity.WithLogger(l)
}

// NewManager starts a unit of work on exec using the process-wide
// metadata registry.
func NewManager(exec types.Executor, opts ...Option) *Manager {
	return entity.NewManager(exec, opts...)
}

// Register builds and validates the mapping of T and of every entity
// reachable from it through eager associations.
func Register[T any]() error {
	return mapping.Default.Register(reflect.TypeFor[T]())
}

// MustRegister is like Register but panics on a mapping error. Use it in
// package initialization.
func MustRegister[T any]() {
	if err := Register[T](); err != nil {
		panic(err)
	}
}

// Find loads the entity of type T with identifier id.
func Find[T any](ctx context.Context, em types.EntityManager, id any) (*T, error) {
	v, err := em.Find(ctx, reflect.TypeFor[T](), id)
	if err != nil {
		return nil, err
	}
	e, ok := v.(*T)
	if !ok {
		return nil, fmt.Errorf("%w: found %T, want *%s", types.ErrInvalidData, v, reflect.TypeFor[T]().Name())
	}
	return e, nil
}

// GetReference returns a deferred reference to the entity of type T with
// identifier id. No query runs until the reference is resolved.
func GetReference[T any](em types.EntityManager, id any) (types.Ref[T], error) {
	lazy, err := em.GetReference(reflect.TypeFor[T](), id)
	if err != nil {
		return types.Ref[T]{}, err
	}
	return types.NewRef[T](lazy), nil
}
