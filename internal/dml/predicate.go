// Package dml renders SQL text from entity descriptors.
//
// Builders are pure: they read a descriptor and, where needed, runtime
// values, and return text plus positional arguments. Nothing here talks to
// a database.
package dml

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/rowmap/internal/mapping"
)

// Predicate is an identifier equality on one table, e.g. person1.id=1.
type Predicate struct {
	Column string // Table-qualified identifier column.
	Value  any
}

// ByID returns the identifier predicate for id on md's table.
func ByID(md *mapping.EntityMetadata, id any) Predicate {
	return Predicate{Column: md.TableName() + "." + md.IDColumnName(), Value: id}
}

// Literal renders the predicate with the value inlined:
// "<table>.<idColumn>=<value>". Numbers are unquoted; strings are single
// quoted with embedded quotes doubled.
func (p Predicate) Literal() string {
	return p.Column + "=" + Literal(p.Value)
}

// Bind renders the predicate with a placeholder and returns its argument.
func (p Predicate) Bind() (string, []any) {
	return p.Column + " = ?", []any{p.Value}
}

func (p Predicate) String() string { return p.Literal() }

// Literal renders v as SQL literal text.
func Literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return quote(x)
	case []byte:
		return quote(string(x))
	case time.Time:
		return quote(x.Format(time.RFC3339Nano))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64)
	case reflect.Bool:
		if rv.Bool() {
			return "TRUE"
		}
		return "FALSE"
	case reflect.String:
		return quote(rv.String())
	case reflect.Pointer:
		if rv.IsNil() {
			return "NULL"
		}
		return Literal(rv.Elem().Interface())
	}
	return quote(fmt.Sprint(v))
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
