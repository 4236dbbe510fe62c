package mapping

import (
	"fmt"
	"reflect"
)

//go:generate go tool stringer -type=FetchStrategy,IDGeneration -output=column_string.go

// FetchStrategy selects when a one-to-many association is loaded.
// The zero value is FetchEager.
type FetchStrategy int

const (
	FetchEager FetchStrategy = iota // Joined into the owner's select.
	FetchLazy                       // Loaded by a second query on first access.
)

// IDGeneration selects how an identifier value is produced on insert.
type IDGeneration int

const (
	GenerateNone     IDGeneration = iota // Caller assigns the identifier.
	GenerateIdentity                     // Database assigns it; excluded from INSERT.
	GenerateUUID                         // UUID v7 assigned before INSERT when zero.
)

// Column is one mapped attribute. The set of implementations is closed:
// *IDColumn, *FieldColumn and *OneToManyColumn. Code that branches on the
// kind uses a type switch whose default case returns UnknownColumnError.
type Column interface {
	// ColumnName is the SQL column name.
	ColumnName() string
	// FieldName is the Go struct field the column is read and written through.
	FieldName() string
	// TableName is the owning table.
	TableName() string
	// Index is the reflect field index path within the owning struct.
	Index() []int
	// Insertable reports whether the column takes part in INSERT.
	Insertable() bool
	// Association reports whether the column is a relation rather than a value.
	Association() bool

	sealed()
}

// attribute carries what every column kind shares.
type attribute struct {
	name  string
	field string
	table string
	index []int
	typ   reflect.Type
}

func (a attribute) ColumnName() string { return a.name }
func (a attribute) FieldName() string  { return a.field }
func (a attribute) TableName() string  { return a.table }
func (a attribute) Index() []int       { return a.index }

// FieldType is the Go type of the struct field.
func (a attribute) FieldType() reflect.Type { return a.typ }

// Value returns the field of entity (a struct value) backing the column.
func (a attribute) Value(entity reflect.Value) reflect.Value {
	return entity.FieldByIndex(a.index)
}

// Aliased returns the column qualified by its table, e.g. "orders.id".
func (a attribute) Aliased() string {
	return a.table + "." + a.name
}

// IDColumn is the identifier column. It is never nullable, always selected
// and never updated.
type IDColumn struct {
	attribute
	generation IDGeneration
}

// Generation reports how the identifier is produced.
func (c *IDColumn) Generation() IDGeneration { return c.generation }

// Insertable is false only for database-generated identifiers.
func (c *IDColumn) Insertable() bool  { return c.generation != GenerateIdentity }
func (c *IDColumn) Association() bool { return false }
func (c *IDColumn) Nullable() bool    { return false }
func (c *IDColumn) sealed()           {}

// FieldColumn is a plain value column.
type FieldColumn struct {
	attribute
	nullable   bool
	insertable bool
}

func (c *FieldColumn) Insertable() bool  { return c.insertable }
func (c *FieldColumn) Association() bool { return false }

// Nullable is descriptive only; no DDL is generated from it.
func (c *FieldColumn) Nullable() bool { return c.nullable }
func (c *FieldColumn) sealed()        {}

// OneToManyColumn maps a collection of target entities whose table carries
// a join key referencing the owner's identifier.
type OneToManyColumn struct {
	attribute
	target     reflect.Type
	fetch      FetchStrategy
	joinColumn string
}

// TargetType is the struct type of the associated entities.
func (c *OneToManyColumn) TargetType() reflect.Type { return c.target }

// FetchStrategy reports whether the association is joined or deferred.
func (c *OneToManyColumn) FetchStrategy() FetchStrategy { return c.fetch }

// JoinColumn is the column in the target table holding the owner's id.
func (c *OneToManyColumn) JoinColumn() string { return c.joinColumn }

func (c *OneToManyColumn) Insertable() bool  { return false }
func (c *OneToManyColumn) Association() bool { return true }
func (c *OneToManyColumn) sealed()           {}

// UnknownColumnError is returned by type switches over Column that meet an
// implementation they do not handle.
func UnknownColumnError(c Column) error {
	return fmt.Errorf("unknown column kind %T", c)
}
