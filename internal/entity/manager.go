// Package entity implements the persistence context: a unit of work that
// loads, inserts, updates and deletes mapped entities through an Executor,
// keeps one instance per (type, identifier) in an identity map, and binds
// lazy associations for on-demand loading.
//
// A Manager is scoped to one logical operation and is not safe for
// concurrent use.
package entity

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/mesh-intelligence/rowmap/internal/dml"
	"github.com/mesh-intelligence/rowmap/internal/logging"
	"github.com/mesh-intelligence/rowmap/internal/mapping"
	"github.com/mesh-intelligence/rowmap/pkg/types"
)

// key identifies an entity: its struct type and normalized identifier.
type key struct {
	typ reflect.Type
	id  any
}

// managed is an identity map entry.
type managed struct {
	meta     *mapping.EntityMetadata
	ptr      reflect.Value // *T
	snapshot mapping.Snapshot
}

func (e *managed) key() key {
	return key{typ: e.meta.Type(), id: e.snapshot[e.meta.IDColumnName()]}
}

// Manager implements types.EntityManager.
type Manager struct {
	exec     types.Executor
	registry *mapping.Registry
	log      *slog.Logger

	entities map[key]*managed
	states   map[any]types.EntityState // Keyed by entity pointer.
	keys     map[any]key               // Identity map key of each managed pointer.
	refs     map[key]*types.Lazy[any]
	closed   bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithRegistry resolves descriptors from r instead of mapping.Default.
func WithRegistry(r *mapping.Registry) Option {
	return func(m *Manager) { m.registry = r }
}

// WithLogger replaces the statement logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// NewManager starts a unit of work on exec.
func NewManager(exec types.Executor, opts ...Option) *Manager {
	m := &Manager{
		exec:     exec,
		registry: mapping.Default,
		entities: make(map[key]*managed),
		states:   make(map[any]types.EntityState),
		keys:     make(map[any]key),
		refs:     make(map[key]*types.Lazy[any]),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logging.WithComponent("entity")
	}
	return m
}

var _ types.EntityManager = (*Manager)(nil)

// Find returns the managed instance of typ with identifier id, a pointer
// to the struct. An instance already in the identity map is returned
// without a query; otherwise one joined SELECT loads the entity and its
// eager associations. Returns ErrNotFound if no row matches.
func (m *Manager) Find(ctx context.Context, typ reflect.Type, id any) (any, error) {
	if m.closed {
		return nil, types.ErrClosed
	}
	md, err := m.registry.Of(typ)
	if err != nil {
		return nil, err
	}
	nid, err := md.NormalizeID(id)
	if err != nil {
		return nil, err
	}
	if e, ok := m.entities[key{md.Type(), nid}]; ok {
		return e.ptr.Interface(), nil
	}

	q, err := dml.SelectByID(md, nid)
	if err != nil {
		return nil, err
	}
	pred := dml.ByID(md, nid)
	rows, err := m.query(ctx, md, q.Statement, "find", pred.Literal())
	if err != nil {
		return nil, err
	}
	roots, err := m.hydrate(q.Plan, rows)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrNotFound, pred.Literal())
	}
	return roots[0].Interface(), nil
}

// GetReference returns a deferred reference to (typ, id) without querying.
// Its first Get runs Find; later Gets return the memoized entity. Calls
// for the same key share one reference. A reference to an entity already
// in the identity map is born Loaded.
func (m *Manager) GetReference(typ reflect.Type, id any) (*types.Lazy[any], error) {
	if m.closed {
		return nil, types.ErrClosed
	}
	md, err := m.registry.Of(typ)
	if err != nil {
		return nil, err
	}
	nid, err := md.NormalizeID(id)
	if err != nil {
		return nil, err
	}
	k := key{md.Type(), nid}
	if ref, ok := m.refs[k]; ok {
		return ref, nil
	}

	var ref *types.Lazy[any]
	if e, ok := m.entities[k]; ok {
		ref = types.Resolved[any](e.ptr.Interface())
	} else {
		ref = types.NewLazy(func(ctx context.Context) (any, error) {
			return m.Find(ctx, md.Type(), nid)
		})
	}
	m.refs[k] = ref
	return ref, nil
}

// Merge writes the changed field columns of entity to its row.
//
// A managed entity is compared with its snapshot. An entity this manager
// does not track but whose identifier is set is treated as detached: the
// managed instance is loaded (or taken from the identity map), the
// entity's field values are copied onto it, and that instance is updated.
// Associations are not merged. Nothing is written when no column changed.
func (m *Manager) Merge(ctx context.Context, entity any) error {
	if m.closed {
		return types.ErrClosed
	}
	ptr, md, err := m.entityValue(entity)
	if err != nil {
		return err
	}

	switch state := m.State(entity); state {
	case types.Managed:
		return m.update(ctx, m.entities[m.keyOf(ptr)])
	case types.Transient:
	default:
		return &types.StateError{Op: "merge", State: state}
	}

	id, ok := md.IDValue(ptr.Elem())
	if !ok {
		return &types.StateError{Op: "merge", State: types.Transient}
	}
	found, err := m.Find(ctx, md.Type(), id)
	if err != nil {
		return err
	}
	target := reflect.ValueOf(found).Elem()
	for _, c := range md.FieldColumns() {
		c.Value(target).Set(c.Value(ptr.Elem()))
	}
	return m.update(ctx, m.entities[m.keyOf(target.Addr())])
}

func (m *Manager) update(ctx context.Context, e *managed) error {
	stmt, ok := dml.Update(e.meta, e.snapshot, e.ptr.Elem())
	pred := dml.ByID(e.meta, e.snapshot[e.meta.IDColumnName()]).Literal()
	if !ok {
		m.log.Debug("merge skipped, nothing changed", "table", e.meta.TableName(), "where", pred)
		return nil
	}
	res, err := m.execute(ctx, e.meta, stmt, "merge", pred)
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", types.ErrNotFound, pred)
	}
	e.snapshot = e.meta.Snapshot(e.ptr.Elem())
	return nil
}

// Remove deletes the row of a managed entity. The entity leaves the
// identity map and becomes Removed; associations are not cascaded.
func (m *Manager) Remove(ctx context.Context, entity any) error {
	if m.closed {
		return types.ErrClosed
	}
	ptr, md, err := m.entityValue(entity)
	if err != nil {
		return err
	}
	if state := m.State(entity); state != types.Managed {
		return &types.StateError{Op: "remove", State: state}
	}

	k := m.keyOf(ptr)
	pred := dml.ByID(md, k.id).Literal()
	if _, err := m.execute(ctx, md, dml.Delete(md, k.id), "remove", pred); err != nil {
		return err
	}
	delete(m.entities, k)
	delete(m.refs, k)
	delete(m.keys, entity)
	m.states[entity] = types.Removed
	return nil
}

// State reports the lifecycle state of entity relative to this manager.
// Entities the manager has never seen are Transient; after Close every
// entity it tracked is Detached.
func (m *Manager) State(entity any) types.EntityState {
	v := reflect.ValueOf(entity)
	if !v.IsValid() || v.Kind() != reflect.Pointer {
		return types.Transient
	}
	s, ok := m.states[entity]
	if !ok {
		return types.Transient
	}
	if m.closed {
		return types.Detached
	}
	return s
}

// Contains reports whether entity is managed by this manager.
func (m *Manager) Contains(entity any) bool {
	return m.State(entity) == types.Managed
}

// Close ends the unit of work. Tracked entities become Detached and every
// further operation, including unresolved lazy loads, fails with ErrClosed.
// Close is idempotent.
func (m *Manager) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	for p := range m.states {
		m.states[p] = types.Detached
	}
	clear(m.entities)
	clear(m.keys)
	clear(m.refs)
	return nil
}

// entityValue checks that entity is a non-nil pointer to a mapped struct.
func (m *Manager) entityValue(entity any) (reflect.Value, *mapping.EntityMetadata, error) {
	v := reflect.ValueOf(entity)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, nil, fmt.Errorf("%w: %T is not a pointer to a mapped struct", types.ErrInvalidData, entity)
	}
	md, err := m.registry.Of(v.Type().Elem())
	if err != nil {
		return reflect.Value{}, nil, err
	}
	return v, md, nil
}

// keyOf returns the identity map key of a managed entity. The identifier
// comes from the snapshot, so in-memory edits to it do not move the entry.
func (m *Manager) keyOf(ptr reflect.Value) key {
	return m.keys[ptr.Interface()]
}

// track records ptr as managed with a fresh snapshot.
func (m *Manager) track(md *mapping.EntityMetadata, ptr reflect.Value) *managed {
	e := &managed{meta: md, ptr: ptr, snapshot: md.Snapshot(ptr.Elem())}
	k := e.key()
	m.entities[k] = e
	m.keys[ptr.Interface()] = k
	m.states[ptr.Interface()] = types.Managed
	return e
}

func (m *Manager) query(ctx context.Context, md *mapping.EntityMetadata, stmt dml.Statement, op, where string) ([]types.Row, error) {
	m.log.Debug(op, "table", md.TableName(), "where", where, "sql", stmt.SQL)
	rows, err := m.exec.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, &types.ExecutionError{SQL: stmt.SQL, Err: err}
	}
	return rows, nil
}

func (m *Manager) execute(ctx context.Context, md *mapping.EntityMetadata, stmt dml.Statement, op, where string) (types.Result, error) {
	m.log.Debug(op, "table", md.TableName(), "where", where, "sql", stmt.SQL)
	res, err := m.exec.Exec(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return types.Result{}, &types.ExecutionError{SQL: stmt.SQL, Err: err}
	}
	return res, nil
}
