package entity

import (
	"context"
	"fmt"
	"reflect"

	"github.com/mesh-intelligence/rowmap/internal/dml"
	"github.com/mesh-intelligence/rowmap/internal/mapping"
	"github.com/mesh-intelligence/rowmap/pkg/types"
)

// lazyCollection is implemented by *types.Lazy[[]*T] for every T.
type lazyCollection interface {
	Bind(load func(context.Context) (any, error))
	Value() (any, bool)
	State() types.LoadState
}

// link records that child was appended to one of parent's collections.
type link struct {
	node   *dml.JoinNode
	parent uintptr
	child  uintptr
}

// hydrate turns the rows of a join query into entities and returns the
// distinct roots in row order. Rows sharing a root identifier are merged:
// each node's columns yield one instance per identifier, reused from the
// identity map when already managed. Children are appended to a parent's
// collection only when the parent was created by this call, so collections
// of instances already in memory are never rewritten.
func (m *Manager) hydrate(plan *dml.JoinPlan, rows []types.Row) ([]reflect.Value, error) {
	index := make(map[*dml.JoinNode]int, len(plan.Nodes))
	for i, n := range plan.Nodes {
		index[n] = i
	}

	var roots []reflect.Value
	seenRoot := map[uintptr]bool{}
	fresh := map[uintptr]bool{}
	linked := map[link]bool{}

	for _, row := range rows {
		if len(row) != plan.Width {
			return nil, fmt.Errorf("%w: row has %d columns, select has %d", types.ErrInvalidData, len(row), plan.Width)
		}
		instances := make([]reflect.Value, len(plan.Nodes))
		for i, n := range plan.Nodes {
			if n.Parent != nil && !instances[index[n.Parent]].IsValid() {
				continue
			}
			raw := row[n.Offset : n.Offset+n.Width()]
			if raw[0] == nil {
				continue // LEFT JOIN found no child.
			}
			inst, created, err := m.instance(n.Meta, raw)
			if err != nil {
				return nil, err
			}
			instances[i] = inst
			if created {
				fresh[inst.Pointer()] = true
			}

			if n.Parent == nil {
				if !seenRoot[inst.Pointer()] {
					seenRoot[inst.Pointer()] = true
					roots = append(roots, inst)
				}
				continue
			}
			parent := instances[index[n.Parent]]
			l := link{node: n, parent: parent.Pointer(), child: inst.Pointer()}
			if !fresh[l.parent] || linked[l] {
				continue
			}
			linked[l] = true
			coll := n.Via.Value(parent.Elem())
			coll.Set(reflect.Append(coll, inst))
		}
	}
	return roots, nil
}

// instance returns the managed entity for the identifier in raw[0],
// creating, populating and tracking it when it is not yet managed.
func (m *Manager) instance(md *mapping.EntityMetadata, raw types.Row) (reflect.Value, bool, error) {
	id, err := md.NormalizeID(raw[0])
	if err != nil {
		return reflect.Value{}, false, err
	}
	if e, ok := m.entities[key{md.Type(), id}]; ok {
		return e.ptr, false, nil
	}

	ptr := reflect.New(md.Type())
	elem := ptr.Elem()
	for i, c := range md.ValueColumns() {
		f, err := mapping.FieldValue(c, elem)
		if err != nil {
			return reflect.Value{}, false, err
		}
		if err := mapping.Assign(f, raw[i]); err != nil {
			return reflect.Value{}, false, fmt.Errorf("%s.%s: %w", md.TableName(), c.ColumnName(), err)
		}
	}
	if err := m.initAssociations(md, elem, id); err != nil {
		return reflect.Value{}, false, err
	}
	m.track(md, ptr)
	return ptr, true, nil
}

// initAssociations gives a newly managed entity empty eager collections
// and Unloaded lazy collections bound to its identifier.
func (m *Manager) initAssociations(md *mapping.EntityMetadata, elem reflect.Value, id any) error {
	for _, c := range md.OneToManyColumns() {
		f := c.Value(elem)
		switch c.FetchStrategy() {
		case mapping.FetchEager:
			if f.IsNil() {
				f.Set(reflect.MakeSlice(f.Type(), 0, 0))
			}
		case mapping.FetchLazy:
			if f.IsNil() {
				f.Set(reflect.New(f.Type().Elem()))
			}
			lazy := f.Interface().(lazyCollection)
			if lazy.State() != types.Loaded {
				m.bindLazy(lazy, c, id)
			}
		default:
			return fmt.Errorf("%s: unknown fetch strategy %v", c.FieldName(), c.FetchStrategy())
		}
	}
	return nil
}

// bindLazy makes lazy load the collection c of the owner with identifier
// ownerID on first Get.
func (m *Manager) bindLazy(lazy lazyCollection, c *mapping.OneToManyColumn, ownerID any) {
	lazy.Bind(func(ctx context.Context) (any, error) {
		return m.loadAssociation(ctx, c, ownerID)
	})
}

// loadAssociation runs the secondary query of a lazy association and
// returns a []*T holding the managed children.
func (m *Manager) loadAssociation(ctx context.Context, c *mapping.OneToManyColumn, ownerID any) (any, error) {
	if m.closed {
		return nil, types.ErrClosed
	}
	target, err := m.registry.Of(c.TargetType())
	if err != nil {
		return nil, err
	}
	q, err := dml.SelectByJoinKey(target, c.JoinColumn(), ownerID)
	if err != nil {
		return nil, err
	}
	where := target.TableName() + "." + c.JoinColumn() + "=" + dml.Literal(ownerID)
	rows, err := m.query(ctx, target, q.Statement, "load "+c.FieldName(), where)
	if err != nil {
		return nil, err
	}
	children, err := m.hydrate(q.Plan, rows)
	if err != nil {
		return nil, err
	}
	out := reflect.MakeSlice(reflect.SliceOf(reflect.PointerTo(c.TargetType())), 0, len(children))
	for _, child := range children {
		out = reflect.Append(out, child)
	}
	return out.Interface(), nil
}
