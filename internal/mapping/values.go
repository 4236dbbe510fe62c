package mapping

import (
	"bytes"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/cast"

	"github.com/mesh-intelligence/rowmap/pkg/types"
)

var (
	timeType    = reflect.TypeFor[time.Time]()
	scannerType = reflect.TypeFor[sql.Scanner]()
	valuerType  = reflect.TypeFor[driver.Valuer]()
)

// Snapshot holds the identifier and field column values of an entity,
// keyed by column name, as recorded when the entity became managed.
type Snapshot map[string]any

// Snapshot copies the value columns of entity, a struct value.
func (md *EntityMetadata) Snapshot(entity reflect.Value) Snapshot {
	s := make(Snapshot, len(md.fields)+1)
	s[md.id.ColumnName()] = snapshotValue(md.id.Value(entity))
	for _, c := range md.fields {
		s[c.ColumnName()] = snapshotValue(c.Value(entity))
	}
	return s
}

// Changed reports whether column c of entity differs from the snapshot.
// Associations are never part of a snapshot and never report a change.
func (s Snapshot) Changed(c Column, entity reflect.Value) bool {
	v, err := FieldValue(c, entity)
	if err != nil {
		return false
	}
	return !reflect.DeepEqual(s[c.ColumnName()], snapshotValue(v))
}

// FieldValue returns the struct field of entity backing the value column c.
func FieldValue(c Column, entity reflect.Value) (reflect.Value, error) {
	switch col := c.(type) {
	case *IDColumn:
		return col.Value(entity), nil
	case *FieldColumn:
		return col.Value(entity), nil
	case *OneToManyColumn:
		return reflect.Value{}, fmt.Errorf("%w: %s is an association", types.ErrInvalidData, col.FieldName())
	default:
		return reflect.Value{}, UnknownColumnError(c)
	}
}

// snapshotValue detaches a field value from the entity: pointers are
// dereferenced and byte slices copied so later writes do not leak in.
func snapshotValue(v reflect.Value) any {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Type() == byteSliceType {
		return bytes.Clone(v.Bytes())
	}
	return v.Interface()
}

// BindValue returns the driver argument for a field value.
func BindValue(v reflect.Value) any {
	if v.Type().Implements(valuerType) {
		if v.Kind() == reflect.Pointer && v.IsNil() {
			return nil
		}
		return v.Interface()
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		return BindValue(v.Elem())
	}
	return v.Interface()
}

// Assign stores a driver value into a struct field, converting between the
// driver's representation and the field's Go type. NULL sets the zero value.
func Assign(dst reflect.Value, raw any) error {
	if dst.CanAddr() && dst.Addr().Type().Implements(scannerType) {
		return dst.Addr().Interface().(sql.Scanner).Scan(raw)
	}
	if raw == nil {
		dst.SetZero()
		return nil
	}
	if dst.Kind() == reflect.Pointer {
		elem := reflect.New(dst.Type().Elem())
		if err := Assign(elem.Elem(), raw); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	src := reflect.ValueOf(raw)
	if src.Type().AssignableTo(dst.Type()) {
		if b, ok := raw.([]byte); ok {
			raw = bytes.Clone(b)
			src = reflect.ValueOf(raw)
		}
		dst.Set(src)
		return nil
	}

	var err error
	switch dst.Kind() {
	case reflect.String:
		var s string
		if s, err = cast.ToStringE(raw); err == nil {
			dst.SetString(s)
		}
	case reflect.Bool:
		var b bool
		if b, err = cast.ToBoolE(raw); err == nil {
			dst.SetBool(b)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var n int64
		if n, err = cast.ToInt64E(raw); err == nil {
			if dst.OverflowInt(n) {
				return fmt.Errorf("%w: %d overflows %s", types.ErrInvalidData, n, dst.Type())
			}
			dst.SetInt(n)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		var n uint64
		if n, err = cast.ToUint64E(raw); err == nil {
			if dst.OverflowUint(n) {
				return fmt.Errorf("%w: %d overflows %s", types.ErrInvalidData, n, dst.Type())
			}
			dst.SetUint(n)
		}
	case reflect.Float32, reflect.Float64:
		var f float64
		if f, err = cast.ToFloat64E(raw); err == nil {
			dst.SetFloat(f)
		}
	case reflect.Slice:
		if dst.Type().Elem().Kind() != reflect.Uint8 {
			return convertOrFail(dst, src)
		}
		var s string
		if s, err = cast.ToStringE(raw); err == nil {
			dst.SetBytes([]byte(s))
		}
	case reflect.Struct:
		if dst.Type() != timeType {
			return convertOrFail(dst, src)
		}
		var tm time.Time
		if tm, err = cast.ToTimeE(raw); err == nil {
			dst.Set(reflect.ValueOf(tm))
		}
	default:
		return convertOrFail(dst, src)
	}
	if err != nil {
		return fmt.Errorf("%w: cannot store %T in %s: %v", types.ErrInvalidData, raw, dst.Type(), err)
	}
	return nil
}

func convertOrFail(dst, src reflect.Value) error {
	if src.Type().ConvertibleTo(dst.Type()) {
		dst.Set(src.Convert(dst.Type()))
		return nil
	}
	return fmt.Errorf("%w: cannot store %s in %s", types.ErrInvalidData, src.Type(), dst.Type())
}

// NormalizeID converts id to the identifier's Go type so that equal
// identifiers key the identity map the same way (int 1 and int64 1 alike).
// Nil and zero identifiers are rejected with ErrInvalidID.
func (md *EntityMetadata) NormalizeID(id any) (any, error) {
	if id == nil {
		return nil, fmt.Errorf("%w: nil identifier for %s", types.ErrInvalidID, md.typ.Name())
	}
	v := reflect.New(md.IDType()).Elem()
	if err := Assign(v, id); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidID, err)
	}
	if v.IsZero() {
		return nil, fmt.Errorf("%w: zero identifier for %s", types.ErrInvalidID, md.typ.Name())
	}
	return v.Interface(), nil
}

// IDValue returns the identifier of entity, a struct value, and whether it
// is set (non-zero).
func (md *EntityMetadata) IDValue(entity reflect.Value) (any, bool) {
	v := md.id.Value(entity)
	return v.Interface(), !v.IsZero()
}
