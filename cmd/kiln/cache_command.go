package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"kiln/internal/derive"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage cached build state",
	}
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show derivative cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stats, err := derive.CollectStats(cfg.DerivedDir())
			if err != nil {
				return fmt.Errorf("collect cache stats: %w", err)
			}
			if jsonOut {
				return writeJSON(cmd, stats)
			}
			rows := [][]string{
				{"Entries", strconv.Itoa(stats.Entries)},
				{"Total size", formatBytes(stats.TotalBytes)},
				{"Volume free", formatBytes(int64(stats.FreeBytes))},
				{"Free ratio", fmt.Sprintf("%.1f%%", stats.FreeRatio*100)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit stats as JSON")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete cached state; the next build runs from scratch",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to clear the cache without --yes")
			}
			for _, path := range []string{cfg.SnapshotPath(), cfg.DerivativeIndexPath()} {
				if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("remove %s: %w", path, err)
				}
			}
			if err := os.RemoveAll(cfg.DerivedDir()); err != nil {
				return fmt.Errorf("remove derived outputs: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared; the next build will regenerate everything.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm cache removal")
	return cmd
}
