package cli

import (
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rowmap/pkg/rowmap"
)

func newGetCmd(a *app) *cobra.Command {
	var dump bool
	cmd := &cobra.Command{
		Use:   "get <entity> <id>",
		Short: "Load an entity by identifier",
		Long: `Load an entity and its eager associations with one query and print it.
--dump prints the Go value itself, lazy collections included.

Example:
  rowmap get order 42
  rowmap get customer 0190a1f2-... --dump`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := lookupEntity(args[0])
			if err != nil {
				return err
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
			if dump {
				cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}
				cfg.Fdump(cmd.OutOrStdout(), e)
				return nil
			}
			return a.printValue(cmd.OutOrStdout(), e)
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "print the loaded Go value")
	return cmd
}
