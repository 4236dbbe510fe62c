package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/rowmap/internal/shop"
	"github.com/mesh-intelligence/rowmap/pkg/rowmap"
	"github.com/mesh-intelligence/rowmap/pkg/types"
)

// openDatabase attaches the configured backend. Without a schema_file the
// shop schema for the backend is applied; its statements are idempotent.
// The caller must Detach the result.
func (a *app) openDatabase(ctx context.Context) (rowmap.Database, error) {
	cfg, err := a.backendConfig()
	if err != nil {
		return nil, userError(fmt.Errorf("config.yaml: %w", err))
	}
	db, err := rowmap.Open(cfg)
	if err != nil {
		return nil, sysError(fmt.Errorf("attach backend: %w", err))
	}
	if cfg.SchemaFile == "" {
		script, err := shop.Schema(cfg.Backend)
		if err == nil {
			err = db.ExecScript(ctx, script)
		}
		if err != nil {
			db.Detach()
			return nil, sysError(fmt.Errorf("apply schema: %w", err))
		}
	}
	return db, nil
}

// lookupEntity resolves an entity name given on the command line.
func lookupEntity(name string) (reflect.Type, error) {
	t, err := shop.Lookup(name)
	return t, userError(err)
}

// classify picks the exit code of an entity manager error.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidData),
		errors.Is(err, types.ErrInvalidState):
		return userError(err)
	default:
		return sysError(err)
	}
}

// decodeEntity unmarshals a JSON object into a new instance of t and
// returns the pointer.
func decodeEntity(t reflect.Type, data []byte) (any, error) {
	ptr := reflect.New(t).Interface()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(ptr); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", types.ErrInvalidData, t.Name(), err)
	}
	return ptr, nil
}

// printValue writes v as indented JSON in --json mode and as YAML
// otherwise. Values go through their JSON encoding either way, so json
// struct tags decide what is shown.
func (a *app) printValue(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	if a.jsonMode {
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	return enc.Close()
}
