package rowmap

import (
	"reflect"
	"strings"

	"github.com/mesh-intelligence/rowmap/internal/dml"
	"github.com/mesh-intelligence/rowmap/internal/mapping"
)

// Column describes one mapped column.
type Column struct {
	Name       string `json:"name" yaml:"name"`
	Field      string `json:"field" yaml:"field"`
	Type       string `json:"type" yaml:"type"`
	ID         bool   `json:"id,omitempty" yaml:"id,omitempty"`
	Generation string `json:"generation,omitempty" yaml:"generation,omitempty"`
	Insertable bool   `json:"insertable" yaml:"insertable"`
	Nullable   bool   `json:"nullable" yaml:"nullable"`
}

// Association describes a one-to-many collection.
type Association struct {
	Field  string `json:"field" yaml:"field"`
	Target string `json:"target" yaml:"target"`
	Join   string `json:"join" yaml:"join"`
	Fetch  string `json:"fetch" yaml:"fetch"`
}

// Description is the resolved mapping of an entity type together with
// the select list its loads use.
type Description struct {
	Type         string        `json:"type" yaml:"type"`
	Table        string        `json:"table" yaml:"table"`
	Columns      []Column      `json:"columns" yaml:"columns"`
	Associations []Association `json:"associations,omitempty" yaml:"associations,omitempty"`
	Select       string        `json:"select" yaml:"select"`
}

// Describe returns the mapping of T.
func Describe[T any]() (Description, error) {
	return DescribeType(reflect.TypeFor[T]())
}

// DescribeType returns the mapping of t.
func DescribeType(t reflect.Type) (Description, error) {
	md, err := mapping.Of(t)
	if err != nil {
		return Description{}, err
	}
	sel, err := dml.SelectColumns(md)
	if err != nil {
		return Description{}, err
	}

	d := Description{Type: md.Type().Name(), Table: md.TableName(), Select: sel}
	for _, c := range md.Columns() {
		switch c := c.(type) {
		case *mapping.IDColumn:
			d.Columns = append(d.Columns, Column{
				Name:       c.ColumnName(),
				Field:      c.FieldName(),
				Type:       c.FieldType().String(),
				ID:         true,
				Generation: strings.ToLower(strings.TrimPrefix(c.Generation().String(), "Generate")),
				Insertable: c.Insertable(),
			})
		case *mapping.FieldColumn:
			d.Columns = append(d.Columns, Column{
				Name:       c.ColumnName(),
				Field:      c.FieldName(),
				Type:       c.FieldType().String(),
				Insertable: c.Insertable(),
				Nullable:   c.Nullable(),
			})
		case *mapping.OneToManyColumn:
			d.Associations = append(d.Associations, Association{
				Field:  c.FieldName(),
				Target: c.TargetType().Name(),
				Join:   c.JoinColumn(),
				Fetch:  strings.ToLower(strings.TrimPrefix(c.FetchStrategy().String(), "Fetch")),
			})
		default:
			return Description{}, mapping.UnknownColumnError(c)
		}
	}
	return d, nil
}
