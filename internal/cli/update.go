package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rowmap/internal/mapping"
	"github.com/mesh-intelligence/rowmap/pkg/rowmap"
	"github.com/mesh-intelligence/rowmap/pkg/types"
)

func newUpdateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update <entity> <id> <json>",
		Short: "Change fields of an existing entity",
		Long: `Load the entity, apply the fields present in the JSON object, and merge
the change back. Only columns whose value changed are written; the
identifier cannot be changed.

Example:
  rowmap update order 42 '{"note":"leave at the door"}'`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := lookupEntity(args[0])
			if err != nil {
				return err
			}
			md, err := mapping.Of(t)
			if err != nil {
				return sysError(err)
			}
			patch := []byte(args[2])
			if err := checkPatch(md, patch); err != nil {
				return userError(err)
			}

			ctx := cmd.Context()
			db, err := a.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Detach()

			em := rowmap.NewManager(db)
			defer em.Close()
			e, err := em.Find(ctx, t, args[1])
			if err != nil {
				return classify(err)
			}
			dec := json.NewDecoder(bytes.NewReader(patch))
			dec.DisallowUnknownFields()
			if err := dec.Decode(e); err != nil {
				return userError(fmt.Errorf("%w: decoding %s: %v", types.ErrInvalidData, t.Name(), err))
			}
			if err := em.Merge(ctx, e); err != nil {
				return classify(err)
			}
			return a.printValue(cmd.OutOrStdout(), e)
		},
	}
}

// checkPatch rejects patches that are not JSON objects or that set the
// identifier field.
func checkPatch(md *mapping.EntityMetadata, patch []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil {
		return fmt.Errorf("%w: patch must be a JSON object: %v", types.ErrInvalidData, err)
	}
	for name := range fields {
		// encoding/json matches keys case-insensitively.
		if strings.EqualFold(name, md.IDColumnName()) || strings.EqualFold(name, md.IDName()) {
			return fmt.Errorf("%w: %s cannot be changed", types.ErrInvalidID, md.IDName())
		}
	}
	return nil
}
