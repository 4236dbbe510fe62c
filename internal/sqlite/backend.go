// Package sqlite implements the statement executor over database/sql.
//
// The default driver is modernc.org/sqlite (pure Go). Builds with cgo also
// register DuckDB, selected with Config.Backend = "duckdb". The executor
// returns rows positionally, exactly as the driver produced them; value
// conversion into entity fields happens in the mapping layer.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/rowmap/internal/logging"
	"github.com/mesh-intelligence/rowmap/pkg/types"
)

// Database file names created under Config.DataDir.
const (
	SQLiteFile = "rowmap.db"
	DuckDBFile = "rowmap.duckdb"
)

// Backend implements types.Backend. It is safe for concurrent use; the
// entity managers running on it are not.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
}

// NewBackend creates a detached backend. Call Attach before use.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens the database described by config and runs its schema
// script, if any. DSN wins over DataDir; with neither, the database file is
// created in the working directory.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dsn, err := dataSource(config)
	if err != nil {
		return err
	}
	db, err := sql.Open(config.Backend, dsn)
	if err != nil {
		return fmt.Errorf("opening %s: %w", config.Backend, err)
	}
	if config.Backend == types.BackendSQLite {
		// One writer; also keeps ":memory:" databases on a single connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("opening %s: %w", config.Backend, err)
	}

	if config.SchemaFile != "" {
		script, err := os.ReadFile(config.SchemaFile)
		if err != nil {
			db.Close()
			return fmt.Errorf("reading schema: %w", err)
		}
		if _, err := db.Exec(string(script)); err != nil {
			db.Close()
			return fmt.Errorf("applying schema %s: %w", config.SchemaFile, err)
		}
	}

	b.db = db
	b.config = config
	b.attached = true
	logging.WithComponent("backend").Info("attached", "backend", config.Backend, "dsn", dsn)
	return nil
}

// dataSource resolves the driver DSN for config, creating DataDir if needed.
func dataSource(config types.Config) (string, error) {
	if config.DSN != "" {
		return config.DSN, nil
	}
	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", err
	}
	if config.Backend == types.BackendDuckDB {
		return filepath.Join(dataDir, DuckDBFile), nil
	}
	return filepath.Join(dataDir, SQLiteFile) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", nil
}

// Detach closes the database. After Detach, Exec and Query return
// ErrBackendDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	db := b.db
	b.db = nil
	logging.WithComponent("backend").Info("detached", "backend", b.config.Backend)
	return db.Close()
}

// Config returns the configuration the backend was attached with.
func (b *Backend) Config() types.Config {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config
}

// Exec runs a statement that returns no rows.
func (b *Backend) Exec(ctx context.Context, query string, args ...any) (types.Result, error) {
	db, err := b.handle()
	if err != nil {
		return types.Result{}, err
	}
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return types.Result{}, err
	}

	var out types.Result
	if out.RowsAffected, err = res.RowsAffected(); err != nil {
		return types.Result{}, err
	}
	// Not every driver reports insert ids; zero means unknown.
	if id, err := res.LastInsertId(); err == nil {
		out.LastInsertID = id
	}
	return out, nil
}

// Query runs a statement and returns its rows. Each value is what the
// driver produced for the column; byte slices are copies.
func (b *Backend) Query(ctx context.Context, query string, args ...any) ([]types.Row, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []types.Row
	for rows.Next() {
		row := make(types.Row, len(cols))
		dest := make([]any, len(cols))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ExecScript runs a multi-statement script such as a schema file. Blank
// scripts are a no-op.
func (b *Backend) ExecScript(ctx context.Context, script string) error {
	if strings.TrimSpace(script) == "" {
		return nil
	}
	db, err := b.handle()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, script)
	return err
}

func (b *Backend) handle() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrBackendDetached
	}
	return b.db, nil
}
