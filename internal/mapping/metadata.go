// Package mapping derives schema descriptors from mapped Go types.
//
// A descriptor (EntityMetadata) is built once per type from the type's
// `orm` struct tags, validated eagerly, cached in a Registry, and never
// mutated afterwards. The query builders and the entity manager consume it.
package mapping

import (
	"context"
	"fmt"
	"reflect"

	"github.com/mesh-intelligence/rowmap/pkg/types"
)

var (
	entityMarkerType = reflect.TypeFor[types.Entity]()
	byteSliceType    = reflect.TypeFor[[]byte]()
)

// lazyField is implemented by *types.Lazy[T] for every T.
type lazyField interface {
	Bind(load func(context.Context) (any, error))
	ValueType() reflect.Type
}

var lazyFieldType = reflect.TypeFor[lazyField]()

// EntityMetadata is the schema descriptor of one mapped type.
type EntityMetadata struct {
	typ       reflect.Type
	table     string
	columns   []Column // Declaration order, every kind.
	id        *IDColumn
	fields    []*FieldColumn
	oneToMany []*OneToManyColumn
	registry  *Registry
}

// newEntityMetadata reads the declarations of t. It never resolves
// association targets, so building one descriptor never waits on another.
func newEntityMetadata(reg *Registry, t reflect.Type) (*EntityMetadata, error) {
	if t.Kind() != reflect.Struct {
		return nil, &types.MappingError{Type: t.String(), Reason: "mapped type must be a struct"}
	}

	table, err := tableName(t)
	if err != nil {
		return nil, err
	}

	md := &EntityMetadata{typ: t, table: table, registry: reg}
	if err := md.collect(t, nil); err != nil {
		return nil, err
	}
	if md.id == nil {
		return nil, &types.MappingError{Type: t.Name(), Reason: "no identifier column; tag one field `orm:\"id\"`"}
	}

	seen := make(map[string]string, len(md.columns))
	for _, c := range md.columns {
		if c.Association() {
			continue
		}
		if prev, dup := seen[c.ColumnName()]; dup {
			return nil, &types.MappingError{
				Type:   t.Name(),
				Field:  c.FieldName(),
				Reason: fmt.Sprintf("column %q already mapped by %s", c.ColumnName(), prev),
			}
		}
		seen[c.ColumnName()] = c.FieldName()
	}
	return md, nil
}

// tableName finds the embedded Entity marker and applies its table override.
func tableName(t reflect.Type) (string, error) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous || f.Type != entityMarkerType {
			continue
		}
		opts, err := parseTag(f.Tag.Get(tagKey))
		if err != nil {
			return "", &types.MappingError{Type: t.Name(), Field: f.Name, Reason: err.Error()}
		}
		if extra := opts.has(flagID, flagIdentity, flagUUID, flagOneToMany, keyColumn, keyInsertable, keyNullable, keyJoin, keyFetch); extra != "" {
			return "", &types.MappingError{Type: t.Name(), Field: f.Name, Reason: fmt.Sprintf("option %q is not valid on the entity marker", extra)}
		}
		if name, ok := opts.values[keyTable]; ok {
			return name, nil
		}
		return t.Name(), nil
	}
	return "", &types.MappingError{Type: t.Name(), Reason: "missing types.Entity marker"}
}

// collect walks the fields of t in declaration order, flattening embedded
// structs other than the Entity marker.
func (md *EntityMetadata) collect(t reflect.Type, prefix []int) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		if f.Anonymous && f.Type == entityMarkerType {
			continue
		}
		tag := f.Tag.Get(tagKey)
		if tag == "-" {
			continue
		}
		if f.Anonymous && f.Type.Kind() == reflect.Struct && tag == "" {
			if err := md.collect(f.Type, index); err != nil {
				return err
			}
			continue
		}
		if !f.IsExported() {
			continue
		}

		opts, err := parseTag(tag)
		if err != nil {
			return md.fail(f, err.Error())
		}
		switch {
		case opts.flags[flagOneToMany]:
			err = md.addOneToMany(f, index, opts)
		case opts.flags[flagID]:
			err = md.addID(f, index, opts)
		default:
			err = md.addField(f, index, opts)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (md *EntityMetadata) fail(f reflect.StructField, reason string) error {
	return &types.MappingError{Type: md.typ.Name(), Field: f.Name, Reason: reason}
}

func (md *EntityMetadata) attribute(f reflect.StructField, index []int, opts tagOptions) attribute {
	name := attributeName(f.Name)
	if override, ok := opts.values[keyColumn]; ok {
		name = override
	}
	return attribute{name: name, field: f.Name, table: md.table, index: index, typ: f.Type}
}

func (md *EntityMetadata) addID(f reflect.StructField, index []int, opts tagOptions) error {
	if md.id != nil {
		return md.fail(f, fmt.Sprintf("second identifier column; %s is already the identifier", md.id.FieldName()))
	}
	if bad := opts.has(keyTable, keyInsertable, keyNullable, keyJoin, keyFetch); bad != "" {
		return md.fail(f, fmt.Sprintf("option %q is not valid on an identifier", bad))
	}
	if opts.flags[flagIdentity] && opts.flags[flagUUID] {
		return md.fail(f, "identifier cannot be both identity and uuid")
	}

	kind := f.Type.Kind()
	gen := GenerateNone
	switch {
	case opts.flags[flagIdentity]:
		if !isInteger(kind) {
			return md.fail(f, "identity identifiers must be integers")
		}
		gen = GenerateIdentity
	case opts.flags[flagUUID]:
		if kind != reflect.String {
			return md.fail(f, "uuid identifiers must be strings")
		}
		gen = GenerateUUID
	default:
		if !isInteger(kind) && kind != reflect.String {
			return md.fail(f, fmt.Sprintf("unsupported identifier type %s", f.Type))
		}
	}

	md.id = &IDColumn{attribute: md.attribute(f, index, opts), generation: gen}
	md.columns = append(md.columns, md.id)
	return nil
}

func (md *EntityMetadata) addField(f reflect.StructField, index []int, opts tagOptions) error {
	if bad := opts.has(flagIdentity, flagUUID, keyTable, keyJoin, keyFetch); bad != "" {
		return md.fail(f, fmt.Sprintf("option %q is only valid on identifiers or associations", bad))
	}
	if f.Type.Implements(lazyFieldType) || isEntityCollection(f.Type) {
		return md.fail(f, "collection fields need `orm:\"one_to_many,...\"` or `orm:\"-\"`")
	}
	insertable, err := opts.boolValue(keyInsertable, true)
	if err != nil {
		return md.fail(f, err.Error())
	}
	nullable, err := opts.boolValue(keyNullable, true)
	if err != nil {
		return md.fail(f, err.Error())
	}

	c := &FieldColumn{attribute: md.attribute(f, index, opts), nullable: nullable, insertable: insertable}
	md.fields = append(md.fields, c)
	md.columns = append(md.columns, c)
	return nil
}

func (md *EntityMetadata) addOneToMany(f reflect.StructField, index []int, opts tagOptions) error {
	if bad := opts.has(flagID, flagIdentity, flagUUID, keyTable, keyColumn, keyInsertable, keyNullable); bad != "" {
		return md.fail(f, fmt.Sprintf("option %q is not valid on an association", bad))
	}
	fetch, err := opts.fetchValue()
	if err != nil {
		return md.fail(f, err.Error())
	}

	collection := f.Type
	if fetch == FetchLazy {
		if !f.Type.Implements(lazyFieldType) || f.Type.Kind() != reflect.Pointer {
			return md.fail(f, "lazy associations must be declared as *types.Lazy[[]*T]")
		}
		collection = reflect.New(f.Type.Elem()).Interface().(lazyField).ValueType()
	} else if f.Type.Implements(lazyFieldType) {
		return md.fail(f, "*types.Lazy fields need fetch:lazy")
	}
	if !isEntityCollection(collection) {
		return md.fail(f, fmt.Sprintf("association type %s is not a slice of struct pointers", collection))
	}

	join := opts.values[keyJoin]
	if join == "" {
		join = md.table + "_id"
	}

	c := &OneToManyColumn{
		attribute:  md.attribute(f, index, opts),
		target:     collection.Elem().Elem(),
		fetch:      fetch,
		joinColumn: join,
	}
	md.oneToMany = append(md.oneToMany, c)
	md.columns = append(md.columns, c)
	return nil
}

// isEntityCollection reports whether t is []*S for a struct S.
func isEntityCollection(t reflect.Type) bool {
	return t.Kind() == reflect.Slice &&
		t.Elem().Kind() == reflect.Pointer &&
		t.Elem().Elem().Kind() == reflect.Struct
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// Type returns the mapped struct type.
func (md *EntityMetadata) Type() reflect.Type { return md.typ }

// TableName returns the table name, overridden or the type's simple name.
func (md *EntityMetadata) TableName() string { return md.table }

// Columns returns every column, associations included, in declaration order.
func (md *EntityMetadata) Columns() []Column {
	return append([]Column(nil), md.columns...)
}

// IDColumn returns the identifier column.
func (md *EntityMetadata) IDColumn() *IDColumn { return md.id }

// IDColumnName returns the identifier's SQL column name.
func (md *EntityMetadata) IDColumnName() string { return md.id.ColumnName() }

// IDType returns the Go type of the identifier field.
func (md *EntityMetadata) IDType() reflect.Type { return md.id.FieldType() }

// IDName returns the identifier's Go field name.
func (md *EntityMetadata) IDName() string { return md.id.FieldName() }

// FieldColumns returns the plain value columns in declaration order.
func (md *EntityMetadata) FieldColumns() []*FieldColumn {
	return append([]*FieldColumn(nil), md.fields...)
}

// ValueColumns returns the identifier followed by the field columns.
func (md *EntityMetadata) ValueColumns() []Column {
	cols := make([]Column, 0, len(md.fields)+1)
	cols = append(cols, md.id)
	for _, f := range md.fields {
		cols = append(cols, f)
	}
	return cols
}

// ColumnNames returns the SQL names of the identifier and field columns,
// identifier first, then declaration order.
func (md *EntityMetadata) ColumnNames() []string {
	return mapColumns(md.ValueColumns(), Column.ColumnName)
}

// ColumnFieldNames returns the Go field names in ColumnNames order.
func (md *EntityMetadata) ColumnFieldNames() []string {
	return mapColumns(md.ValueColumns(), Column.FieldName)
}

// InsertableColumns returns the identifier and field columns that take part
// in INSERT, in ColumnNames order.
func (md *EntityMetadata) InsertableColumns() []Column {
	var cols []Column
	for _, c := range md.ValueColumns() {
		if c.Insertable() {
			cols = append(cols, c)
		}
	}
	return cols
}

// InsertableColumnNames returns the SQL names of InsertableColumns.
func (md *EntityMetadata) InsertableColumnNames() []string {
	return mapColumns(md.InsertableColumns(), Column.ColumnName)
}

// OneToManyColumns returns every association column in declaration order.
func (md *EntityMetadata) OneToManyColumns() []*OneToManyColumn {
	return append([]*OneToManyColumn(nil), md.oneToMany...)
}

// LazyOneToManyColumns returns the associations fetched on first access.
func (md *EntityMetadata) LazyOneToManyColumns() []*OneToManyColumn {
	return md.associations(FetchLazy)
}

// EagerOneToManyColumns returns the associations joined into the owner's select.
func (md *EntityMetadata) EagerOneToManyColumns() []*OneToManyColumn {
	return md.associations(FetchEager)
}

func (md *EntityMetadata) associations(fetch FetchStrategy) []*OneToManyColumn {
	var cols []*OneToManyColumn
	for _, c := range md.oneToMany {
		if c.FetchStrategy() == fetch {
			cols = append(cols, c)
		}
	}
	return cols
}

// IsAssociatedWith reports whether some association of md targets other's type.
func (md *EntityMetadata) IsAssociatedWith(other *EntityMetadata) bool {
	if other == nil {
		return false
	}
	for _, c := range md.oneToMany {
		if c.TargetType() == other.typ {
			return true
		}
	}
	return false
}

// AliasedColumnNames returns ColumnNames qualified by the table name.
func (md *EntityMetadata) AliasedColumnNames() []string {
	names := md.ColumnNames()
	for i, n := range names {
		names[i] = md.table + "." + n
	}
	return names
}

// ColumnNamesWithAlias lists the columns of the eager join rooted at md:
// md's own aliased columns, then each eager association's, recursively, in
// declaration order. Lazy associations do not contribute.
func (md *EntityMetadata) ColumnNamesWithAlias() ([]string, error) {
	var names []string
	err := md.WalkEager(func(_ *EntityMetadata, _ *OneToManyColumn, node *EntityMetadata) error {
		names = append(names, node.AliasedColumnNames()...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// EagerVisitor is called once per entity in an eager join, parent first.
// For the root, parent and via are nil.
type EagerVisitor func(parent *EntityMetadata, via *OneToManyColumn, node *EntityMetadata) error

// WalkEager visits md and, depth first in declaration order, every entity
// reachable through eager associations. A type reached twice would join
// its table twice and is reported as a MappingError.
func (md *EntityMetadata) WalkEager(visit EagerVisitor) error {
	seen := map[reflect.Type]bool{md.typ: true}
	if err := visit(nil, nil, md); err != nil {
		return err
	}
	return md.walkEager(visit, seen)
}

func (md *EntityMetadata) walkEager(visit EagerVisitor, seen map[reflect.Type]bool) error {
	for _, c := range md.EagerOneToManyColumns() {
		target, err := md.registry.Of(c.TargetType())
		if err != nil {
			return fmt.Errorf("resolving %s.%s: %w", md.typ.Name(), c.FieldName(), err)
		}
		if seen[target.typ] {
			return &types.MappingError{
				Type:   md.typ.Name(),
				Field:  c.FieldName(),
				Reason: fmt.Sprintf("eager association reaches %s twice; make one side lazy", target.typ.Name()),
			}
		}
		seen[target.typ] = true
		if err := visit(md, c, target); err != nil {
			return err
		}
		if err := target.walkEager(visit, seen); err != nil {
			return err
		}
	}
	return nil
}

func mapColumns(cols []Column, f func(Column) string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = f(c)
	}
	return out
}
