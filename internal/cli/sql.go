package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSQLCmd(a *app) *cobra.Command {
	var exec bool
	cmd := &cobra.Command{
		Use:   "sql <statement> [args...]",
		Short: "Run a SQL statement against the database",
		Long: `Run a statement with optional positional arguments bound to its ?
placeholders. Rows are printed one per line, values separated by tabs.
With --exec the statement is run for its effect and the affected row
count is printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Detach()

			binds := make([]any, 0, len(args)-1)
			for _, s := range args[1:] {
				binds = append(binds, s)
			}
			out := cmd.OutOrStdout()

			if exec {
				res, err := db.Exec(ctx, args[0], binds...)
				if err != nil {
					return sysError(err)
				}
				if a.jsonMode {
					return a.printValue(out, map[string]int64{"rows_affected": res.RowsAffected})
				}
				fmt.Fprintf(out, "%d rows affected\n", res.RowsAffected)
				return nil
			}

			rows, err := db.Query(ctx, args[0], binds...)
			if err != nil {
				return sysError(err)
			}
			if a.jsonMode {
				return a.printValue(out, rows)
			}
			for _, row := range rows {
				cells := make([]string, len(row))
				for i, v := range row {
					cells[i] = formatCell(v)
				}
				fmt.Fprintln(out, strings.Join(cells, "\t"))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&exec, "exec", false, "run the statement without reading rows")
	return cmd
}

func formatCell(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
