package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"kiln/internal/derive"
	"kiln/internal/snapshot"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show committed build state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			snap, committed := snapshot.NewStore(cfg.SnapshotPath()).Load()
			index := derive.LoadIndex(cfg.DerivativeIndexPath())
			stats, statsErr := derive.CollectStats(cfg.DerivedDir())

			if jsonOut {
				payload := map[string]any{
					"committed":   committed,
					"inputs":      snap.Len(),
					"derivatives": index.Len(),
					"cache":       stats,
				}
				if committed {
					payload["snapshot_taken_at"] = snap.TakenAt
				}
				return writeJSON(cmd, payload)
			}

			rows := [][]string{
				{"Committed snapshot", yesNo(committed)},
				{"Inputs tracked", strconv.Itoa(snap.Len())},
				{"Derivative records", strconv.Itoa(index.Len())},
			}
			if committed {
				rows = append(rows, []string{"Snapshot taken", snap.TakenAt.Local().Format(time.RFC3339)})
			}
			if statsErr == nil {
				rows = append(rows,
					[]string{"Derived files", strconv.Itoa(stats.Entries)},
					[]string{"Derived size", formatBytes(stats.TotalBytes)},
				)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit status as JSON")
	return cmd
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
