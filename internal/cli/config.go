package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/rowmap/internal/paths"
	"github.com/mesh-intelligence/rowmap/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// Keys in config.yaml.
	cfgKeyBackend    = "backend"
	cfgKeyDataDir    = "data_dir"
	cfgKeyDSN        = "dsn"
	cfgKeySchemaFile = "schema_file"
	cfgKeyLogLevel   = "log_level"
	cfgKeyLogFormat  = "log_format"

	defaultBackend  = types.BackendSQLite
	defaultLogLevel = "warn"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# rowmap configuration

# Backend selection: sqlite or duckdb
backend: sqlite

# Data directory (optional; overridable by --data-dir)
# data_dir:

# Driver DSN (optional; wins over data_dir)
# dsn:

# SQL script run on every attach (optional; defaults to the shop schema)
# schema_file:

# Logging: debug, info, warn, error; text or json
log_level: warn
log_format: text
`

// loadConfig reads config.yaml from configDir using Viper. It creates the
// directory and a default config.yaml on first run. ROWMAP_BACKEND,
// ROWMAP_DSN, ROWMAP_LOG_LEVEL and ROWMAP_LOG_FORMAT override file values;
// the data directory follows paths.ResolveDataDir instead.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(paths.AppName)
	for _, key := range []string{cfgKeyBackend, cfgKeyDSN, cfgKeyLogLevel, cfgKeyLogFormat} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile writes defaultConfigYAML unless config.yaml
// already exists.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, paths.ConfigFileName)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// backendConfig builds the backend configuration from config.yaml and the
// global flags. A relative schema_file is resolved against the config
// directory.
func (a *app) backendConfig() (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(a.dataDir, a.config.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg := types.Config{
		Backend:    a.config.GetString(cfgKeyBackend),
		DataDir:    dataDir,
		DSN:        a.config.GetString(cfgKeyDSN),
		SchemaFile: a.config.GetString(cfgKeySchemaFile),
		LogLevel:   a.config.GetString(cfgKeyLogLevel),
		LogFormat:  a.config.GetString(cfgKeyLogFormat),
	}
	if cfg.SchemaFile != "" && !filepath.IsAbs(cfg.SchemaFile) {
		cfg.SchemaFile = filepath.Join(a.configDir, cfg.SchemaFile)
	}
	return cfg, cfg.Validate()
}
