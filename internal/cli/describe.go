package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rowmap/internal/shop"
	"github.com/mesh-intelligence/rowmap/pkg/rowmap"
)

func newDescribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe [entity...]",
		Short: "Show how entities map to tables",
		Long: `Print the resolved mapping of each named entity (all entities when none
are named): table, columns, associations and the select list used to
load it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = shop.Names()
			}
			out := make([]rowmap.Description, 0, len(names))
			for _, n := range names {
				t, err := lookupEntity(n)
				if err != nil {
					return err
				}
				d, err := rowmap.DescribeType(t)
				if err != nil {
					return sysError(err)
				}
				out = append(out, d)
			}
			return a.printValue(cmd.OutOrStdout(), out)
		},
	}
}
