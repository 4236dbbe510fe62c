package types

import "errors"

// Config holds backend selection and parameters for an Executor backend.
type Config struct {
	Backend    string `json:"backend" yaml:"backend"`
	DataDir    string `json:"data_dir" yaml:"data_dir"`
	DSN        string `json:"dsn,omitempty" yaml:"dsn,omitempty"`                 // Overrides the DataDir-derived database path.
	SchemaFile string `json:"schema_file,omitempty" yaml:"schema_file,omitempty"` // SQL script executed on Attach.
	LogLevel   string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	LogFormat  string `json:"log_format,omitempty" yaml:"log_format,omitempty"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
	BackendDuckDB = "duckdb"
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrLogFormat      = errors.New("log format must be text or json")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
	BackendDuckDB: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return ErrLogFormat
	}
	return nil
}
