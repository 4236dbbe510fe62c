package types

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

// LoadState is the resolution state of a deferred reference.
type LoadState int

const (
	Unloaded LoadState = iota
	Loading
	Loaded
)

// Lazy is a deferred value: Unloaded until the first Get runs its loader,
// Loaded (memoized) afterwards. Concurrent Get calls block on the single
// load. A failed load leaves the value Unloaded so a later Get retries.
//
// Lazy one-to-many associations are declared as *Lazy[[]*T] fields; the
// entity manager binds the loader when it hydrates the owner.
type Lazy[T any] struct {
	mu    sync.Mutex
	state atomic.Int32
	load  func(context.Context) (T, error)
	value T
}

// NewLazy returns an Unloaded value resolved by load.
func NewLazy[T any](load func(context.Context) (T, error)) *Lazy[T] {
	return &Lazy[T]{load: load}
}

// Resolved returns a Lazy that is already Loaded with value.
func Resolved[T any](value T) *Lazy[T] {
	l := &Lazy[T]{value: value}
	l.state.Store(int32(Loaded))
	return l
}

// Get returns the value, running the loader on first use.
// A Lazy with no loader resolves to the zero value.
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if LoadState(l.state.Load()) == Loaded {
		return l.value, nil
	}
	if l.load == nil {
		l.state.Store(int32(Loaded))
		return l.value, nil
	}

	l.state.Store(int32(Loading))
	v, err := l.load(ctx)
	if err != nil {
		l.state.Store(int32(Unloaded))
		var zero T
		return zero, err
	}
	l.value = v
	l.load = nil
	l.state.Store(int32(Loaded))
	return v, nil
}

// State reports the current resolution state without blocking.
func (l *Lazy[T]) State() LoadState {
	return LoadState(l.state.Load())
}

// Set replaces the value and marks it Loaded; any pending loader is dropped.
func (l *Lazy[T]) Set(value T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.value = value
	l.load = nil
	l.state.Store(int32(Loaded))
}

// Bind installs an untyped loader and resets the value to Unloaded. It exists
// for reflection-driven hydration, where T is only known at run time; the
// loaded value must have dynamic type T.
func (l *Lazy[T]) Bind(load func(context.Context) (any, error)) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var zero T
	l.value = zero
	l.load = func(ctx context.Context) (T, error) {
		v, err := load(ctx)
		if err != nil {
			return zero, err
		}
		typed, ok := v.(T)
		if !ok {
			return zero, fmt.Errorf("%w: lazy value has type %T, want %T", ErrInvalidData, v, zero)
		}
		return typed, nil
	}
	l.state.Store(int32(Unloaded))
}

// Value returns the value as any if it is Loaded, without running the loader.
func (l *Lazy[T]) Value() (any, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if LoadState(l.state.Load()) != Loaded {
		return nil, false
	}
	return l.value, true
}

// ValueType returns the reflect type of T.
func (l *Lazy[T]) ValueType() reflect.Type {
	return reflect.TypeFor[T]()
}

// Ref is a typed view of an entity reference returned by
// EntityManager.GetReference. Refs for the same (type, id) within one manager
// share the underlying reference, so they compare equal and resolve once.
type Ref[T any] struct {
	lazy *Lazy[any]
}

// NewRef wraps an untyped reference.
func NewRef[T any](lazy *Lazy[any]) Ref[T] {
	return Ref[T]{lazy: lazy}
}

// Get resolves the reference, issuing at most one query over its lifetime.
func (r Ref[T]) Get(ctx context.Context) (*T, error) {
	if r.lazy == nil {
		return nil, ErrNotFound
	}
	v, err := r.lazy.Get(ctx)
	if err != nil {
		return nil, err
	}
	e, ok := v.(*T)
	if !ok {
		return nil, fmt.Errorf("%w: reference resolved to %T", ErrInvalidData, v)
	}
	return e, nil
}

// State reports whether the reference has been resolved.
func (r Ref[T]) State() LoadState {
	if r.lazy == nil {
		return Unloaded
	}
	return r.lazy.State()
}
