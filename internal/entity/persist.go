package entity

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/rowmap/internal/dml"
	"github.com/mesh-intelligence/rowmap/internal/mapping"
	"github.com/mesh-intelligence/rowmap/pkg/types"
)

// Persist inserts a transient entity and makes it managed.
//
// Identifiers are produced by their generation strategy: uuid identifiers
// get a UUID v7 when zero, identity identifiers are read back from the
// insert, and plain identifiers must already be set. The entity's eager
// collections, and lazy collections the caller has loaded with values,
// are persisted in turn with their join key set to the new identifier.
func (m *Manager) Persist(ctx context.Context, entity any) error {
	if m.closed {
		return types.ErrClosed
	}
	ptr, md, err := m.entityValue(entity)
	if err != nil {
		return err
	}
	if state := m.State(entity); state != types.Transient {
		return &types.StateError{Op: "persist", State: state}
	}
	return m.persist(ctx, md, ptr, nil)
}

func (m *Manager) persist(ctx context.Context, md *mapping.EntityMetadata, ptr reflect.Value, join *dml.Assignment) error {
	elem := ptr.Elem()
	idField := md.IDColumn().Value(elem)

	if join != nil {
		// A child that maps its join key as a field sees the owner's id too.
		for _, c := range md.FieldColumns() {
			if c.ColumnName() == join.Column {
				if err := mapping.Assign(c.Value(elem), join.Value); err != nil {
					return fmt.Errorf("%s.%s: %w", md.TableName(), c.ColumnName(), err)
				}
			}
		}
	}

	var extra []dml.Assignment
	if join != nil {
		extra = append(extra, *join)
	}

	switch md.IDColumn().Generation() {
	case mapping.GenerateUUID:
		if idField.IsZero() {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			idField.SetString(id.String())
		}
		fallthrough
	case mapping.GenerateNone:
		id, ok := md.IDValue(elem)
		if !ok {
			return fmt.Errorf("%w: %s.%s is not set", types.ErrInvalidID, md.Type().Name(), md.IDName())
		}
		nid, err := md.NormalizeID(id)
		if err != nil {
			return err
		}
		if _, dup := m.entities[key{md.Type(), nid}]; dup {
			return fmt.Errorf("%w: %s is already managed", types.ErrInvalidState, dml.ByID(md, nid).Literal())
		}
		stmt, err := dml.Insert(md, elem, extra...)
		if err != nil {
			return err
		}
		if _, err := m.execute(ctx, md, stmt, "persist", dml.ByID(md, nid).Literal()); err != nil {
			return err
		}
	case mapping.GenerateIdentity:
		stmt, err := dml.InsertReturningID(md, elem, extra...)
		if err != nil {
			return err
		}
		rows, err := m.query(ctx, md, stmt, "persist", md.TableName()+"."+md.IDColumnName()+"=<generated>")
		if err != nil {
			return err
		}
		if len(rows) != 1 || len(rows[0]) != 1 {
			return &types.ExecutionError{SQL: stmt.SQL, Err: fmt.Errorf("expected one generated identifier, got %d rows", len(rows))}
		}
		if err := mapping.Assign(idField, rows[0][0]); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%s: unknown identifier generation %v", md.IDName(), md.IDColumn().Generation())
	}

	e := m.track(md, ptr)
	return m.cascade(ctx, md, elem, e.snapshot[md.IDColumnName()])
}

// cascade persists the transient children of a newly inserted owner.
// Children already managed are left alone.
func (m *Manager) cascade(ctx context.Context, md *mapping.EntityMetadata, elem reflect.Value, ownerID any) error {
	for _, c := range md.OneToManyColumns() {
		f := c.Value(elem)
		var children reflect.Value

		switch c.FetchStrategy() {
		case mapping.FetchEager:
			if f.IsNil() {
				f.Set(reflect.MakeSlice(f.Type(), 0, 0))
				continue
			}
			children = f
		case mapping.FetchLazy:
			if f.IsNil() {
				f.Set(reflect.New(f.Type().Elem()))
			}
			lazy := f.Interface().(lazyCollection)
			v, loaded := lazy.Value()
			if !loaded || v == nil || reflect.ValueOf(v).IsNil() {
				m.bindLazy(lazy, c, ownerID)
				continue
			}
			children = reflect.ValueOf(v)
		default:
			return fmt.Errorf("%s: unknown fetch strategy %v", c.FieldName(), c.FetchStrategy())
		}

		target, err := m.registry.Of(c.TargetType())
		if err != nil {
			return err
		}
		join := &dml.Assignment{Column: c.JoinColumn(), Value: ownerID}
		for i := 0; i < children.Len(); i++ {
			child := children.Index(i)
			if child.IsNil() {
				continue
			}
			switch state := m.State(child.Interface()); state {
			case types.Managed:
				continue
			case types.Transient:
				if err := m.persist(ctx, target, child, join); err != nil {
					return fmt.Errorf("persisting %s[%d]: %w", c.FieldName(), i, err)
				}
			default:
				return &types.StateError{Op: "persist " + c.FieldName(), State: state}
			}
		}
	}
	return nil
}
