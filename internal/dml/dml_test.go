// Tests for the SQL builders.
package dml

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rowmap/internal/mapping"
	"github.com/mesh-intelligence/rowmap/pkg/types"
)

type person1 struct {
	types.Entity
	ID   int64 `orm:"id"`
	Name string
}

type person2 struct {
	types.Entity
	ID int64 `orm:"id"`
}

type person3 struct {
	types.Entity `orm:"table:users"`
	ID           int64 `orm:"id"`
}

type tag struct {
	types.Entity `orm:"table:tags"`
	Code         string `orm:"id"`
}

type order struct {
	types.Entity `orm:"table:orders"`
	ID           int64        `orm:"id,identity"`
	OrderNumber  string
	Status       string       `orm:"insertable:false"`
	Items        []*orderItem `orm:"one_to_many,join:order_id"`
}

type orderItem struct {
	types.Entity `orm:"table:order_items"`
	ID           int64 `orm:"id,identity"`
	Product      string
	Quantity     int
	Notes        []*note `orm:"one_to_many,join:item_id"`
}

type note struct {
	types.Entity `orm:"table:notes"`
	ID           string `orm:"id,uuid"`
	Body         string
}

type customer struct {
	types.Entity `orm:"table:customers"`
	ID           string                `orm:"id,uuid"`
	Orders       *types.Lazy[[]*order] `orm:"one_to_many,join:customer_id,fetch:lazy"`
}

type counter struct {
	types.Entity `orm:"table:counters"`
	ID           int64 `orm:"id,identity"`
}

func meta[T any](t *testing.T) *mapping.EntityMetadata {
	t.Helper()
	md, err := mapping.NewRegistry().Of(reflect.TypeFor[T]())
	require.NoError(t, err)
	return md
}

func TestByID_Literal(t *testing.T) {
	tests := []struct {
		name string
		md   *mapping.EntityMetadata
		id   any
		want string
	}{
		{"person1", meta[person1](t), 1, "person1.id=1"},
		{"person2", meta[person2](t), 2, "person2.id=2"},
		{"overridden table", meta[person3](t), 500, "users.id=500"},
		{"int64", meta[person1](t), int64(7), "person1.id=7"},
		{"string", meta[tag](t), "go", "tags.code='go'"},
		{"quote doubled", meta[tag](t), "o'neil", "tags.code='o''neil'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ByID(tt.md, tt.id)
			assert.Equal(t, tt.want, p.Literal())
			assert.Equal(t, tt.want, p.String())
		})
	}
}

func TestByID_Bind(t *testing.T) {
	sql, args := ByID(meta[person3](t), 500).Bind()
	assert.Equal(t, "users.id = ?", sql)
	assert.Equal(t, []any{500}, args)
}

func TestLiteral(t *testing.T) {
	n := 3
	var nilPtr *int
	tests := []struct {
		in   any
		want string
	}{
		{nil, "NULL"},
		{uint8(4), "4"},
		{1.5, "1.5"},
		{true, "TRUE"},
		{&n, "3"},
		{nilPtr, "NULL"},
		{[]byte("x"), "'x'"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Literal(tt.in), "%#v", tt.in)
	}
}

func TestSelectColumns(t *testing.T) {
	cols, err := SelectColumns(meta[order](t))
	require.NoError(t, err)
	assert.Equal(t, "orders.id, orders.orderNumber, orders.status, "+
		"order_items.id, order_items.product, order_items.quantity, "+
		"notes.id, notes.body", cols)
}

func TestNewJoinPlan(t *testing.T) {
	plan, err := NewJoinPlan(meta[order](t))
	require.NoError(t, err)

	require.Len(t, plan.Nodes, 3)
	assert.Equal(t, 8, plan.Width)
	assert.Equal(t, []int{0, 3, 6}, []int{plan.Nodes[0].Offset, plan.Nodes[1].Offset, plan.Nodes[2].Offset})
	assert.Same(t, plan.Root, plan.Nodes[0])
	assert.Same(t, plan.Nodes[1], plan.Nodes[2].Parent)
	assert.Equal(t, "Items", plan.Nodes[1].Via.FieldName())
	assert.Equal(t, []*JoinNode{plan.Nodes[1]}, plan.Root.Children)

	assert.Equal(t, "orders LEFT JOIN order_items ON order_items.order_id = orders.id "+
		"LEFT JOIN notes ON notes.item_id = order_items.id", plan.From())
	assert.Equal(t, "orders.id, order_items.id, notes.id", plan.OrderBy())
}

func TestSelectByID(t *testing.T) {
	t.Run("no associations", func(t *testing.T) {
		q, err := SelectByID(meta[person1](t), int64(1))
		require.NoError(t, err)
		assert.Equal(t, "SELECT person1.id, person1.name FROM person1 WHERE person1.id = ? ORDER BY person1.id", q.SQL)
		assert.Equal(t, []any{int64(1)}, q.Args)
		assert.Len(t, q.Plan.Nodes, 1)
	})

	t.Run("lazy association is not joined", func(t *testing.T) {
		q, err := SelectByID(meta[customer](t), "c1")
		require.NoError(t, err)
		assert.Equal(t, "SELECT customers.id FROM customers WHERE customers.id = ? ORDER BY customers.id", q.SQL)
	})
}

func TestSelectByJoinKey(t *testing.T) {
	q, err := SelectByJoinKey(meta[orderItem](t), "order_id", int64(9))
	require.NoError(t, err)
	assert.Equal(t, "SELECT order_items.id, order_items.product, order_items.quantity, notes.id, notes.body "+
		"FROM order_items LEFT JOIN notes ON notes.item_id = order_items.id "+
		"WHERE order_items.order_id = ? ORDER BY order_items.id, notes.id", q.SQL)
	assert.Equal(t, []any{int64(9)}, q.Args)
}

func TestInsert(t *testing.T) {
	t.Run("identity and read-only columns excluded", func(t *testing.T) {
		md := meta[order](t)
		o := order{ID: 5, OrderNumber: "A-1", Status: "open"}
		stmt, err := Insert(md, reflect.ValueOf(o))
		require.NoError(t, err)
		assert.Equal(t, "INSERT INTO orders (orderNumber) VALUES (?)", stmt.SQL)
		assert.Equal(t, []any{"A-1"}, stmt.Args)
	})

	t.Run("join key appended", func(t *testing.T) {
		md := meta[orderItem](t)
		it := orderItem{Product: "pen", Quantity: 2}
		stmt, err := Insert(md, reflect.ValueOf(it), Assignment{Column: "order_id", Value: int64(5)})
		require.NoError(t, err)
		assert.Equal(t, "INSERT INTO order_items (product, quantity, order_id) VALUES (?, ?, ?)", stmt.SQL)
		assert.Equal(t, []any{"pen", 2, int64(5)}, stmt.Args)
	})

	t.Run("uuid identifier included", func(t *testing.T) {
		md := meta[note](t)
		stmt, err := Insert(md, reflect.ValueOf(note{ID: "n1", Body: "hi"}))
		require.NoError(t, err)
		assert.Equal(t, "INSERT INTO notes (id, body) VALUES (?, ?)", stmt.SQL)
		assert.Equal(t, []any{"n1", "hi"}, stmt.Args)
	})

	t.Run("nothing insertable", func(t *testing.T) {
		stmt, err := Insert(meta[counter](t), reflect.ValueOf(counter{}))
		require.NoError(t, err)
		assert.Equal(t, "INSERT INTO counters DEFAULT VALUES", stmt.SQL)
		assert.Empty(t, stmt.Args)
	})
}

func TestUpdate(t *testing.T) {
	md := meta[orderItem](t)
	it := &orderItem{ID: 3, Product: "pen", Quantity: 1}
	v := reflect.ValueOf(it).Elem()
	snap := md.Snapshot(v)

	_, ok := Update(md, snap, v)
	assert.False(t, ok, "unchanged entity produces no statement")

	it.Quantity = 4
	stmt, ok := Update(md, snap, v)
	require.True(t, ok)
	assert.Equal(t, "UPDATE order_items SET quantity = ? WHERE order_items.id = ?", stmt.SQL)
	assert.Equal(t, []any{4, int64(3)}, stmt.Args)

	it.Product = "pencil"
	stmt, ok = Update(md, snap, v)
	require.True(t, ok)
	assert.Equal(t, "UPDATE order_items SET product = ?, quantity = ? WHERE order_items.id = ?", stmt.SQL)
	assert.Equal(t, []any{"pencil", 4, int64(3)}, stmt.Args)
}

func TestUpdate_NonInsertableColumnsWritten(t *testing.T) {
	md := meta[order](t)
	o := &order{ID: 1, OrderNumber: "A", Status: "open"}
	v := reflect.ValueOf(o).Elem()
	snap := md.Snapshot(v)

	o.Status = "closed"
	stmt, ok := Update(md, snap, v)
	require.True(t, ok)
	assert.Equal(t, "UPDATE orders SET status = ? WHERE orders.id = ?", stmt.SQL)
	assert.Equal(t, []any{"closed", int64(1)}, stmt.Args)
}

func TestDelete(t *testing.T) {
	stmt := Delete(meta[person3](t), int64(500))
	assert.Equal(t, "DELETE FROM users WHERE users.id = ?", stmt.SQL)
	assert.Equal(t, []any{int64(500)}, stmt.Args)
}

func TestInsertReturningID(t *testing.T) {
	stmt, err := InsertReturningID(meta[counter](t), reflect.ValueOf(counter{}))
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO counters DEFAULT VALUES RETURNING id", stmt.SQL)

	type child struct {
		types.Entity `orm:"table:children"`
		ID           int64 `orm:"id,identity"`
		ParentID     int64 `orm:"column:parent_id"`
	}
	stmt, err = InsertReturningID(meta[child](t), reflect.ValueOf(child{ParentID: 1}), Assignment{Column: "parent_id", Value: int64(8)})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO children (parent_id) VALUES (?) RETURNING id", stmt.SQL)
	assert.Equal(t, []any{int64(8)}, stmt.Args)
}
