// Tests for the SQLite executor backend.
package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mesh-intelligence/rowmap/pkg/types"
)

func attachTemp(t *testing.T, cfg types.Config) *Backend {
	t.Helper()
	if cfg.Backend == "" {
		cfg.Backend = types.BackendSQLite
	}
	if cfg.DataDir == "" && cfg.DSN == "" {
		cfg.DataDir = t.TempDir()
	}
	b := NewBackend()
	if err := b.Attach(cfg); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	t.Cleanup(func() { b.Detach() })
	return b
}

func TestBackend_Attach(t *testing.T) {
	tmpDir := t.TempDir()

	b := NewBackend()
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: filepath.Join(tmpDir, "nested"),
	}

	if err := b.Attach(config); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	defer b.Detach()

	// Verify database file created, DataDir included
	dbPath := filepath.Join(tmpDir, "nested", SQLiteFile)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("%s not created", SQLiteFile)
	}

	// Verify double attach fails
	if err := b.Attach(config); err != types.ErrAlreadyAttached {
		t.Errorf("expected ErrAlreadyAttached, got %v", err)
	}

	if got := b.Config().DataDir; got != config.DataDir {
		t.Errorf("expected Config().DataDir %q, got %q", config.DataDir, got)
	}
}

func TestBackend_AttachInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  types.Config
		wantErr error
	}{
		{"empty backend", types.Config{}, types.ErrBackendEmpty},
		{"unknown backend", types.Config{Backend: "postgres"}, types.ErrBackendUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewBackend().Attach(tt.config)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBackend_Detach(t *testing.T) {
	b := NewBackend()
	if err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	if err := b.Detach(); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}

	// Verify idempotent
	if err := b.Detach(); err != nil {
		t.Errorf("second Detach should not error, got %v", err)
	}

	// Verify operations fail after detach
	ctx := context.Background()
	if _, err := b.Exec(ctx, "SELECT 1"); err != types.ErrBackendDetached {
		t.Errorf("Exec: expected ErrBackendDetached, got %v", err)
	}
	if _, err := b.Query(ctx, "SELECT 1"); err != types.ErrBackendDetached {
		t.Errorf("Query: expected ErrBackendDetached, got %v", err)
	}
	if err := b.ExecScript(ctx, "SELECT 1;"); err != types.ErrBackendDetached {
		t.Errorf("ExecScript: expected ErrBackendDetached, got %v", err)
	}
}

func TestBackend_ExecQuery(t *testing.T) {
	ctx := context.Background()
	b := attachTemp(t, types.Config{})

	err := b.ExecScript(ctx, `
CREATE TABLE people (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, photo BLOB);
CREATE TABLE pets (id INTEGER PRIMARY KEY, people_id INTEGER, name TEXT);
`)
	if err != nil {
		t.Fatalf("ExecScript failed: %v", err)
	}

	res, err := b.Exec(ctx, "INSERT INTO people (name, photo) VALUES (?, ?)", "ada", []byte{1, 2})
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if res.RowsAffected != 1 {
		t.Errorf("expected 1 row affected, got %d", res.RowsAffected)
	}
	if res.LastInsertID != 1 {
		t.Errorf("expected LastInsertID 1, got %d", res.LastInsertID)
	}

	rows, err := b.Query(ctx, "SELECT people.id, people.name, people.photo, pets.id FROM people LEFT JOIN pets ON pets.people_id = people.id")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if len(row) != 4 {
		t.Fatalf("expected 4 positional values, got %d", len(row))
	}
	if row[0] != int64(1) {
		t.Errorf("expected id int64(1), got %#v", row[0])
	}
	if row[1] != "ada" {
		t.Errorf("expected name ada, got %#v", row[1])
	}
	if photo, ok := row[2].([]byte); !ok || len(photo) != 2 {
		t.Errorf("expected 2-byte photo, got %#v", row[2])
	}
	if row[3] != nil {
		t.Errorf("expected NULL pet id from LEFT JOIN, got %#v", row[3])
	}

	// RETURNING reports generated identifiers through Query
	rows, err = b.Query(ctx, "INSERT INTO people (name) VALUES (?) RETURNING id", "grace")
	if err != nil {
		t.Fatalf("INSERT RETURNING failed: %v", err)
	}
	if len(rows) != 1 || rows[0][0] != int64(2) {
		t.Errorf("expected returned id 2, got %v", rows)
	}
}

func TestBackend_QueryError(t *testing.T) {
	b := attachTemp(t, types.Config{})
	_, err := b.Query(context.Background(), "SELECT * FROM missing")
	if err == nil || !strings.Contains(err.Error(), "missing") {
		t.Errorf("expected no such table error, got %v", err)
	}
}

func TestBackend_SchemaFile(t *testing.T) {
	tmpDir := t.TempDir()
	schema := filepath.Join(tmpDir, "schema.sql")
	if err := os.WriteFile(schema, []byte("CREATE TABLE IF NOT EXISTS things (id TEXT PRIMARY KEY);"), 0o644); err != nil {
		t.Fatal(err)
	}

	b := attachTemp(t, types.Config{DataDir: tmpDir, SchemaFile: schema})
	if _, err := b.Exec(context.Background(), "INSERT INTO things (id) VALUES ('a')"); err != nil {
		t.Fatalf("expected schema applied, insert failed: %v", err)
	}

	// A missing schema file fails Attach
	err := NewBackend().Attach(types.Config{Backend: types.BackendSQLite, DataDir: tmpDir, SchemaFile: filepath.Join(tmpDir, "nope.sql")})
	if err == nil {
		t.Error("expected error for missing schema file")
	}
}

func TestBackend_MemoryDSN(t *testing.T) {
	ctx := context.Background()
	b := attachTemp(t, types.Config{DSN: ":memory:"})

	if err := b.ExecScript(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY);"); err != nil {
		t.Fatalf("ExecScript failed: %v", err)
	}
	// Every call must see the same in-memory database.
	if _, err := b.Exec(ctx, "INSERT INTO t (id) VALUES (1)"); err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	rows, err := b.Query(ctx, "SELECT id FROM t")
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected 1 row, got %v, %v", rows, err)
	}
}

func TestBackend_ImplementsBackend(t *testing.T) {
	var _ types.Backend = NewBackend()
}
