package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/rowmap/internal/paths"
	"github.com/mesh-intelligence/rowmap/internal/shop"
	"github.com/mesh-intelligence/rowmap/pkg/rowmap"
	"github.com/mesh-intelligence/rowmap/pkg/types"
)

// configFile is the structure init writes to config.yaml.
type configFile struct {
	Backend    string `yaml:"backend"`
	DataDir    string `yaml:"data_dir,omitempty"`
	SchemaFile string `yaml:"schema_file,omitempty"`
	LogLevel   string `yaml:"log_level,omitempty"`
	LogFormat  string `yaml:"log_format,omitempty"`
}

func newInitCmd(a *app) *cobra.Command {
	var backend string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and the database",
		Long: `Write config.yaml and schema.sql into the configuration directory, then
attach the backend once so the data directory and tables exist.

config.yaml is rewritten with the resolved settings; an existing
schema.sql is kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd, backend)
		},
	}
	cmd.Flags().StringVar(&backend, "backend", "", "backend to configure: sqlite or duckdb")
	return cmd
}

func (a *app) runInit(cmd *cobra.Command, backend string) error {
	if backend == "" {
		backend = a.config.GetString(cfgKeyBackend)
	}
	script, err := shop.Schema(backend)
	if err != nil {
		return userError(err)
	}

	schemaPath := filepath.Join(a.configDir, paths.SchemaFileName)
	if err := writeIfMissing(schemaPath, []byte(script)); err != nil {
		return sysError(fmt.Errorf("write schema: %w", err))
	}

	dataDir, err := paths.ResolveDataDir(a.dataDir, a.config.GetString(cfgKeyDataDir))
	if err != nil {
		return sysError(err)
	}
	cfg := configFile{
		Backend:    backend,
		DataDir:    dataDir,
		SchemaFile: paths.SchemaFileName,
		LogLevel:   a.config.GetString(cfgKeyLogLevel),
		LogFormat:  a.config.GetString(cfgKeyLogFormat),
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return sysError(fmt.Errorf("marshal config: %w", err))
	}
	if err := os.WriteFile(filepath.Join(a.configDir, paths.ConfigFileName), data, 0o644); err != nil {
		return sysError(fmt.Errorf("write config: %w", err))
	}

	db, err := rowmap.Open(types.Config{Backend: backend, DataDir: dataDir, SchemaFile: schemaPath})
	if err != nil {
		return sysError(fmt.Errorf("initialize storage: %w", err))
	}
	if err := db.Detach(); err != nil {
		return sysError(fmt.Errorf("finalize storage: %w", err))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "rowmap initialized")
	fmt.Fprintln(out, "  config: ", a.configDir)
	fmt.Fprintln(out, "  data:   ", dataDir)
	fmt.Fprintln(out, "  backend:", backend)
	return nil
}

// writeIfMissing creates path with data unless it already exists.
func writeIfMissing(path string, data []byte) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, data, 0o644)
}
