package types

import (
	"errors"
	"fmt"
)

// Entity manager errors. Callers match them with errors.Is.
var (
	ErrNotFound     = errors.New("entity not found")
	ErrInvalidID    = errors.New("invalid entity ID")
	ErrInvalidData  = errors.New("invalid entity data")
	ErrInvalidState = errors.New("invalid entity state")
	ErrMapping      = errors.New("invalid entity mapping")
	ErrExecution    = errors.New("statement execution failed")
	ErrClosed       = errors.New("entity manager is closed")
)

// Backend lifecycle errors.
var (
	ErrBackendDetached = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)

// MappingError reports a type whose declarations cannot be turned into a
// schema descriptor. It is raised on first use of the type and never retried.
type MappingError struct {
	Type   string // Go type name.
	Field  string // Offending field, empty for type-level problems.
	Reason string
}

func (e *MappingError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("mapping %s: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("mapping %s.%s: %s", e.Type, e.Field, e.Reason)
}

// Is reports ErrMapping so callers need not type-assert.
func (e *MappingError) Is(target error) bool {
	return target == ErrMapping
}

// ExecutionError wraps a failure returned by an Executor together with the
// statement that caused it.
type ExecutionError struct {
	SQL string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("executing %q: %v", e.SQL, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Is reports ErrExecution in addition to whatever the wrapped error matches.
func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecution
}

// StateError reports an operation attempted on an entity in the wrong
// lifecycle state, e.g. Merge on a removed entity.
type StateError struct {
	Op    string
	State EntityState
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: entity is %s", e.Op, e.State)
}

// Is reports ErrInvalidState.
func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}
