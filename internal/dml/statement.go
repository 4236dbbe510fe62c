package dml

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/mesh-intelligence/rowmap/internal/mapping"
)

// Statement is SQL text with positional ? arguments.
type Statement struct {
	SQL  string
	Args []any
}

// Query is a select statement plus the join plan that lays out its rows.
type Query struct {
	Statement
	Plan *JoinPlan
}

// Assignment is an extra column value written alongside an entity's own
// columns, such as the join key of a cascaded child.
type Assignment struct {
	Column string
	Value  any
}

// SelectByID selects the entity with identifier id together with its eager
// associations.
func SelectByID(md *mapping.EntityMetadata, id any) (Query, error) {
	where, args := ByID(md, id).Bind()
	return selectWhere(md, where, args)
}

// SelectByJoinKey selects every md row whose joinColumn holds ownerID,
// together with their eager associations. Lazy associations load this way.
func SelectByJoinKey(md *mapping.EntityMetadata, joinColumn string, ownerID any) (Query, error) {
	return selectWhere(md, md.TableName()+"."+joinColumn+" = ?", []any{ownerID})
}

func selectWhere(md *mapping.EntityMetadata, where string, args []any) (Query, error) {
	plan, err := NewJoinPlan(md)
	if err != nil {
		return Query{}, err
	}
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s",
		strings.Join(plan.Columns(), ", "), plan.From(), where, plan.OrderBy())
	return Query{Statement: Statement{SQL: sql, Args: args}, Plan: plan}, nil
}

// Insert renders an INSERT of entity's insertable columns, in
// InsertableColumnNames order, followed by any extra assignments. An extra
// assignment to a column the entity already maps replaces that value.
func Insert(md *mapping.EntityMetadata, entity reflect.Value, extra ...Assignment) (Statement, error) {
	cols := md.InsertableColumns()
	names := make([]string, 0, len(cols)+len(extra))
	args := make([]any, 0, len(cols)+len(extra))
	for _, c := range cols {
		v, err := mapping.FieldValue(c, entity)
		if err != nil {
			return Statement{}, err
		}
		names = append(names, c.ColumnName())
		args = append(args, mapping.BindValue(v))
	}
	for _, a := range extra {
		if i := slices.Index(names, a.Column); i >= 0 {
			args[i] = a.Value
			continue
		}
		names = append(names, a.Column)
		args = append(args, a.Value)
	}

	if len(names) == 0 {
		return Statement{SQL: "INSERT INTO " + md.TableName() + " DEFAULT VALUES"}, nil
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		md.TableName(), strings.Join(names, ", "), placeholders(len(names)))
	return Statement{SQL: sql, Args: args}, nil
}

// InsertReturningID is Insert with a RETURNING clause yielding the
// identifier, for database-generated identifiers.
func InsertReturningID(md *mapping.EntityMetadata, entity reflect.Value, extra ...Assignment) (Statement, error) {
	stmt, err := Insert(md, entity, extra...)
	if err != nil {
		return Statement{}, err
	}
	stmt.SQL += " RETURNING " + md.IDColumnName()
	return stmt, nil
}

// Update renders an UPDATE of the field columns of entity that differ from
// snap, scoped by the snapshot's identifier. Non-insertable columns are
// written like any other once they change. ok is false when nothing
// changed.
func Update(md *mapping.EntityMetadata, snap mapping.Snapshot, entity reflect.Value) (stmt Statement, ok bool) {
	var sets []string
	for _, c := range md.FieldColumns() {
		if !snap.Changed(c, entity) {
			continue
		}
		sets = append(sets, c.ColumnName()+" = ?")
		stmt.Args = append(stmt.Args, mapping.BindValue(c.Value(entity)))
	}
	if len(sets) == 0 {
		return Statement{}, false
	}
	where, args := ByID(md, snap[md.IDColumnName()]).Bind()
	stmt.SQL = fmt.Sprintf("UPDATE %s SET %s WHERE %s", md.TableName(), strings.Join(sets, ", "), where)
	stmt.Args = append(stmt.Args, args...)
	return stmt, true
}

// Delete renders a DELETE of the row with identifier id.
func Delete(md *mapping.EntityMetadata, id any) Statement {
	where, args := ByID(md, id).Bind()
	return Statement{SQL: fmt.Sprintf("DELETE FROM %s WHERE %s", md.TableName(), where), Args: args}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
