// Package paths resolves where rowmap keeps its configuration and data.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user platform directories.
const AppName = "rowmap"

// DefaultDataDirName is the CWD-relative data directory used when nothing
// else is configured.
const DefaultDataDirName = ".rowmap-db"

// File names inside the configuration directory.
const (
	ConfigFileName = "config.yaml"
	SchemaFileName = "schema.sql"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "ROWMAP_CONFIG_DIR"
	EnvDataDir   = "ROWMAP_DATA_DIR"
)

// userDirs can be replaced in tests.
var userDirs = struct {
	home   func() (string, error)
	config func() (string, error)
}{
	home:   os.UserHomeDir,
	config: os.UserConfigDir,
}

// platformDir returns the per-user directory for AppName. On Linux it
// honours xdgVar, falling back to ~/<linuxFallback>; elsewhere it uses
// os.UserConfigDir (Application Support on macOS, %APPDATA% on Windows).
func platformDir(xdgVar string, linuxFallback ...string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := userDirs.config()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := userDirs.home()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, linuxFallback...), AppName)...), nil
}

// DefaultConfigDir returns the platform configuration directory:
// $XDG_CONFIG_HOME/rowmap or ~/.config/rowmap on Linux.
func DefaultConfigDir() (string, error) {
	return platformDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform data directory:
// $XDG_DATA_HOME/rowmap or ~/.local/share/rowmap on Linux.
func DefaultDataDir() (string, error) {
	return platformDir("XDG_DATA_HOME", ".local", "share")
}

// ResolveConfigDir picks the configuration directory:
// flag > ROWMAP_CONFIG_DIR > DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	if dir := firstNonEmpty(flag, os.Getenv(EnvConfigDir)); dir != "" {
		return filepath.Abs(dir)
	}
	return DefaultConfigDir()
}

// ResolveDataDir picks the data directory:
// flag > config.yaml value > ROWMAP_DATA_DIR > $(CWD)/.rowmap-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	if dir := firstNonEmpty(flag, configValue, os.Getenv(EnvDataDir)); dir != "" {
		return filepath.Abs(dir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
