package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rowmap/internal/logging"
	"github.com/mesh-intelligence/rowmap/internal/sqlite"
	"github.com/mesh-intelligence/rowmap/pkg/rowmap"
)

// loadSummary is what load reports.
type loadSummary struct {
	Entity   string `json:"entity"`
	Loaded   int    `json:"loaded"`
	Skipped  []int  `json:"skipped_lines,omitempty"`
	Rejected []int  `json:"rejected_records,omitempty"`
}

func newLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load <entity> <file.jsonl>",
		Short: "Persist entities from a JSON Lines file",
		Long: `Read one JSON object per line, decode each into the entity type and
persist it. Malformed lines are skipped and reported; a record the
database rejects stops the load.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := lookupEntity(args[0])
			if err != nil {
				return err
			}
			records, skipped, err := sqlite.ReadJSONL(args[1])
			if err != nil {
				return userError(err)
			}
			log := logging.WithComponent("load")
			for _, line := range skipped {
				log.Warn("skipping malformed line", "file", args[1], "line", line)
			}

			ctx := cmd.Context()
			db, err := a.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Detach()

			em := rowmap.NewManager(db)
			defer em.Close()

			summary := loadSummary{Entity: args[0], Skipped: skipped}
			for i, raw := range records {
				e, err := decodeEntity(t, raw)
				if err != nil {
					log.Warn("rejecting record", "record", i+1, "error", err)
					summary.Rejected = append(summary.Rejected, i+1)
					continue
				}
				if err := em.Persist(ctx, e); err != nil {
					return classify(fmt.Errorf("record %d: %w", i+1, err))
				}
				summary.Loaded++
			}

			if a.jsonMode {
				return a.printValue(cmd.OutOrStdout(), summary)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d %s records (%d lines skipped, %d records rejected)\n",
				summary.Loaded, args[0], len(summary.Skipped), len(summary.Rejected))
			return nil
		},
	}
}
