package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rowmap/pkg/rowmap"
)

const modulePath = "github.com/mesh-intelligence/rowmap"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the rowmap version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "rowmap v%s\nmodule: %s\n", rowmap.Version, modulePath)
			return nil
		},
	}
}
