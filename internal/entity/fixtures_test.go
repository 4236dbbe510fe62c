package entity

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rowmap/internal/mapping"
	"github.com/mesh-intelligence/rowmap/internal/sqlite"
	"github.com/mesh-intelligence/rowmap/pkg/types"
)

type Customer struct {
	types.Entity `orm:"table:customers"`
	ID           string                `orm:"id,uuid"`
	Name         string
	Orders       *types.Lazy[[]*Order] `orm:"one_to_many,join:customer_id,fetch:lazy"`
}

type Order struct {
	types.Entity `orm:"table:orders"`
	ID           int64        `orm:"id,identity"`
	OrderNumber  string       `orm:"column:order_number"`
	Items        []*OrderItem `orm:"one_to_many,join:order_id"`
}

type OrderItem struct {
	types.Entity `orm:"table:order_items"`
	ID           int64 `orm:"id,identity"`
	OrderID      int64 `orm:"column:order_id"`
	Product      string
	Quantity     int
}

type Tag struct {
	types.Entity `orm:"table:tags"`
	Code         string `orm:"id"`
	Label        string
}

type Account struct {
	types.Entity `orm:"table:accounts"`
	ID           int64 `orm:"id,identity"`
	Name         string
	Tier         string `orm:"insertable:false"`
}

type Shelf struct {
	types.Entity `orm:"table:shelves"`
	ID           int64 `orm:"id"`
	Name         string
	Boxes        []*Box   `orm:"one_to_many,join:shelf_id"`
	Labels       []*Label `orm:"one_to_many,join:shelf_id"`
}

type Box struct {
	types.Entity `orm:"table:boxes"`
	ID           int64 `orm:"id"`
	Size         string
	Lids         []*Lid `orm:"one_to_many,join:box_id"`
}

type Lid struct {
	types.Entity `orm:"table:lids"`
	ID           int64 `orm:"id"`
	Color        string
}

type Label struct {
	types.Entity `orm:"table:labels"`
	ID           int64 `orm:"id"`
	Text         string
}

type Ghost struct {
	types.Entity `orm:"table:ghosts"`
	ID           int64 `orm:"id"`
}

const testSchema = `
CREATE TABLE customers (
    id TEXT PRIMARY KEY,
    name TEXT
);
CREATE TABLE orders (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    customer_id TEXT REFERENCES customers(id),
    order_number TEXT
);
CREATE TABLE order_items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id INTEGER REFERENCES orders(id) ON DELETE CASCADE,
    product TEXT,
    quantity INTEGER
);
CREATE TABLE tags (
    code TEXT PRIMARY KEY,
    label TEXT
);
CREATE TABLE accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT,
    tier TEXT NOT NULL DEFAULT 'bronze'
);
`

// countingExecutor records every statement it forwards.
type countingExecutor struct {
	types.Executor
	queries []string
	execs   []string
}

func (c *countingExecutor) Query(ctx context.Context, query string, args ...any) ([]types.Row, error) {
	c.queries = append(c.queries, query)
	return c.Executor.Query(ctx, query, args...)
}

func (c *countingExecutor) Exec(ctx context.Context, query string, args ...any) (types.Result, error) {
	c.execs = append(c.execs, query)
	return c.Executor.Exec(ctx, query, args...)
}

func (c *countingExecutor) reset() {
	c.queries, c.execs = nil, nil
}

// setupExecutor attaches a SQLite backend in a temp directory with the
// test schema applied.
func setupExecutor(t *testing.T) *countingExecutor {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	require.NoError(t, b.ExecScript(context.Background(), testSchema))
	return &countingExecutor{Executor: b}
}

func newTestManager(exec types.Executor) *Manager {
	return NewManager(exec, WithRegistry(mapping.NewRegistry()))
}

func typeOf[T any]() reflect.Type { return reflect.TypeFor[T]() }

// stubExecutor returns canned rows for every query.
type stubExecutor struct {
	rows    []types.Row
	err     error
	queries int
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) ([]types.Row, error) {
	s.queries++
	return s.rows, s.err
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (types.Result, error) {
	return types.Result{RowsAffected: 1}, s.err
}
