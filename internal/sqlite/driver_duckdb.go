//go:build cgo

package sqlite

import (
	_ "github.com/duckdb/duckdb-go/v2"
)
