package mapping

import (
	"database/sql"
	"time"

	"github.com/mesh-intelligence/rowmap/pkg/types"
)

type WithID struct {
	types.Entity
	ID int64 `orm:"id"`
}

type WithoutEntity struct {
	ID int64 `orm:"id"`
}

type WithTable struct {
	types.Entity `orm:"table:test_table"`
	ID           int64 `orm:"id"`
}

type WithColumn struct {
	types.Entity
	ID            int64  `orm:"id"`
	Column        string `orm:"column:test_column"`
	NotNullColumn string `orm:"nullable:false"`
}

type WithColumnNonInsertable struct {
	types.Entity
	ID                  int64  `orm:"id,identity"`
	NonInsertableColumn string `orm:"insertable:false"`
	InsertableColumn    string
}

type WithIDAndColumn struct {
	types.Entity
	ID     int64 `orm:"id"`
	Column string
}

type WithoutID struct {
	types.Entity
	Name string
}

type WithTwoIDs struct {
	types.Entity
	ID    int64  `orm:"id"`
	Other string `orm:"id"`
}

type WithIDDeclaredLast struct {
	types.Entity
	Name string
	Code string `orm:"id"`
}

type Timestamps struct {
	CreatedAt time.Time `orm:"column:created_at"`
	UpdatedAt time.Time `orm:"column:updated_at"`
}

type WithEmbedded struct {
	types.Entity
	ID string `orm:"id,uuid"`
	Timestamps
	Skipped string `orm:"-"`
}

type WithNullable struct {
	types.Entity
	ID       string `orm:"id,uuid"`
	Nickname *string
	Score    sql.NullInt64
	Blob     []byte
}

type AssociatedWithID struct {
	types.Entity
	ID int64 `orm:"id"`
}

type WithOneToManyJoinColumn struct {
	types.Entity
	ID      int64               `orm:"id"`
	WithIDs []*AssociatedWithID `orm:"one_to_many,join:with_one_to_many_join_column_id"`
}

type Order struct {
	types.Entity `orm:"table:orders"`
	ID           int64        `orm:"id,identity"`
	OrderNumber  string
	Items        []*OrderItem `orm:"one_to_many,join:order_id"`
}

type OrderItem struct {
	types.Entity `orm:"table:order_items"`
	ID           int64 `orm:"id,identity"`
	Product      string
	Quantity     int
}

type WithOneToMany struct {
	types.Entity
	ID     int64                     `orm:"id"`
	Orders *types.Lazy[[]*Order]     `orm:"one_to_many,join:owner_id,fetch:lazy"`
	Tags   []*AssociatedWithID       `orm:"one_to_many,join:owner_id"`
	Notes  *types.Lazy[[]*OrderItem] `orm:"one_to_many,fetch:lazy"`
}

type Node struct {
	types.Entity
	ID       int64   `orm:"id"`
	Children []*Node `orm:"one_to_many,join:parent_id"`
}

type Shelf struct {
	types.Entity
	ID    int64   `orm:"id"`
	Boxes []*Box  `orm:"one_to_many,join:shelf_id"`
	Loose []*Item `orm:"one_to_many,join:shelf_id"`
}

type Box struct {
	types.Entity
	ID    int64   `orm:"id"`
	Items []*Item `orm:"one_to_many,join:box_id"`
}

type Item struct {
	types.Entity
	ID int64 `orm:"id"`
}
