// Package shop is the sample domain the rowmap command operates on:
// customers, their orders and the order lines.
package shop

import (
	_ "embed"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"time"

	"github.com/mesh-intelligence/rowmap/internal/mapping"
	"github.com/mesh-intelligence/rowmap/pkg/types"
)

// Customer owns orders. Orders are loaded on first access.
type Customer struct {
	types.Entity `orm:"table:customers" json:"-"`
	ID           string                `orm:"id,uuid" json:"id"`
	Name         string                `orm:"nullable:false" json:"name"`
	Email        string                `json:"email,omitempty"`
	Tier         string                `orm:"insertable:false" json:"tier,omitempty"` // Assigned by the database.
	CreatedAt    time.Time             `orm:"column:created_at" json:"created_at"`
	Orders       *types.Lazy[[]*Order] `orm:"one_to_many,join:customer_id,fetch:lazy" json:"-"`
}

// Order is loaded together with its items.
type Order struct {
	types.Entity `orm:"table:orders" json:"-"`
	ID           int64        `orm:"id,identity" json:"id"`
	CustomerID   *string      `orm:"column:customer_id" json:"customer_id,omitempty"`
	OrderNumber  string       `orm:"column:order_number,nullable:false" json:"order_number"`
	Note         *string      `json:"note,omitempty"`
	Items        []*OrderItem `orm:"one_to_many,join:order_id" json:"items"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	types.Entity `orm:"table:order_items" json:"-"`
	ID           int64   `orm:"id,identity" json:"id"`
	OrderID      int64   `orm:"column:order_id" json:"order_id"`
	Product      string  `json:"product"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `orm:"column:unit_price" json:"unit_price"`
}

// Total sums quantity times unit price over the order's items.
func (o *Order) Total() float64 {
	var total float64
	for _, it := range o.Items {
		total += float64(it.Quantity) * it.UnitPrice
	}
	return total
}

// Entities maps the names accepted on the command line to entity types.
var Entities = map[string]reflect.Type{
	"customer":   reflect.TypeFor[Customer](),
	"order":      reflect.TypeFor[Order](),
	"order_item": reflect.TypeFor[OrderItem](),
}

// ErrUnknownEntity is returned by Lookup for names not in Entities.
var ErrUnknownEntity = errors.New("unknown entity")

// Lookup returns the entity type registered under name.
func Lookup(name string) (reflect.Type, error) {
	t, ok := Entities[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (valid: %v)", ErrUnknownEntity, name, Names())
	}
	return t, nil
}

// Names returns the entity names in sorted order.
func Names() []string {
	names := make([]string, 0, len(Entities))
	for n := range Entities {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Register resolves metadata for every shop entity in reg, failing on the
// first mapping error.
func Register(reg *mapping.Registry) error {
	ts := make([]reflect.Type, 0, len(Entities))
	for _, n := range Names() {
		ts = append(ts, Entities[n])
	}
	return reg.Register(ts...)
}

//go:embed schema_sqlite.sql
var sqliteSchema string

//go:embed schema_duckdb.sql
var duckdbSchema string

// Schema returns the DDL that creates the shop tables on backend.
func Schema(backend string) (string, error) {
	switch backend {
	case types.BackendSQLite:
		return sqliteSchema, nil
	case types.BackendDuckDB:
		return duckdbSchema, nil
	default:
		return "", fmt.Errorf("%w: %q", types.ErrBackendUnknown, backend)
	}
}
