package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rowmap/pkg/rowmap"
)

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <entity> <id>",
		Short: "Delete an entity",
		Long: `Delete the row of an entity. Child rows go with it where the schema
declares ON DELETE CASCADE.`,
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
			if err := em.Remove(ctx, e); err != nil {
				return classify(err)
			}
			if a.jsonMode {
				return a.printValue(cmd.OutOrStdout(), map[string]string{"deleted": args[1], "entity": args[0]})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %s\n", args[0], args[1])
			return nil
		},
	}
}
