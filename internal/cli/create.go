package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rowmap/pkg/rowmap"
)

func newCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create <entity> <json>",
		Short: "Insert a new entity",
		Long: `Decode a JSON object into a new entity, persist it with its eager
collections, and print it with the generated identifiers.

Example:
  rowmap create customer '{"name":"Ada","email":"ada@example.com"}'
  rowmap create order '{"order_number":"A-1","items":[{"product":"pen","quantity":2}]}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := lookupEntity(args[0])
			if err != nil {
				return err
			}
			e, err := decodeEntity(t, []byte(args[1]))
			if err != nil {
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
			if err := em.Persist(ctx, e); err != nil {
				return classify(err)
			}
			return a.printValue(cmd.OutOrStdout(), e)
		},
	}
}
