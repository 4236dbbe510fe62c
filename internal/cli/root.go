// Package cli implements the rowmap command-line interface: a small
// front end that maps the sample shop entities onto a SQLite or DuckDB
// database and exposes the entity manager operations as subcommands.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/rowmap/internal/logging"
	"github.com/mesh-intelligence/rowmap/internal/mapping"
	"github.com/mesh-intelligence/rowmap/internal/paths"
	"github.com/mesh-intelligence/rowmap/internal/shop"
	"github.com/mesh-intelligence/rowmap/pkg/rowmap"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError attaches an exit code to a command error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// userError marks err as caused by the invocation: bad arguments, unknown
// entities, missing rows.
func userError(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: exitUserError, err: err}
}

// sysError marks err as an environment failure: files, backend, SQL.
func sysError(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: exitSysError, err: err}
}

// exitCode maps a command error to the process exit code. Errors without
// an explicit code come from cobra's argument and flag parsing.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// app holds the state shared by one command tree: global flag values and
// the configuration loaded before each subcommand runs.
type app struct {
	configDir string
	dataDir   string
	jsonMode  bool

	config *viper.Viper
}

// NewRootCmd creates the top-level "rowmap" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:     "rowmap",
		Short:   "Map Go structs to SQL rows",
		Long:    "rowmap loads, stores and inspects the sample shop entities (customers,\norders, order items) through the rowmap entity manager.",
		Version: rowmap.Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	root.PersistentFlags().BoolVar(&a.jsonMode, "json", false, "output as JSON")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newDescribeCmd(a),
		newSQLCmd(a),
		newGetCmd(a),
		newCreateCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newLoadCmd(a),
	)
	return root
}

// setup loads config.yaml, installs the logger, and validates the shop
// mappings.
func (a *app) setup(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	a.configDir = configDir

	v, err := loadConfig(configDir)
	if err != nil {
		return sysError(err)
	}
	a.config = v

	if err := logging.Init(logging.Config{
		Level:  v.GetString(cfgKeyLogLevel),
		Format: v.GetString(cfgKeyLogFormat),
		Output: cmd.ErrOrStderr(),
	}); err != nil {
		return userError(fmt.Errorf("config.yaml: %w", err))
	}

	if err := shop.Register(mapping.Default); err != nil {
		return sysError(err)
	}
	return nil
}

// Execute runs the command tree with args and returns the exit code.
// Errors are printed to stderr.
func Execute(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(stderr, "rowmap:", err)
	}
	return exitCode(err)
}
