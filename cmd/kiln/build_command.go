package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"kiln/internal/build"
	"kiln/internal/services/vision"
	"kiln/internal/sidecar"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var refreshSidecars bool
	var dryRun bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run one incremental pass over the content tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			orchestrator := build.New(cfg, logger, enrichmentCapability(ctx))
			report, runErr := orchestrator.Run(cmd.Context(), build.Options{
				Force:           force,
				RefreshSidecars: refreshSidecars,
				DryRun:          dryRun,
			})

			if jsonOut {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
				return runErr
			}

			renderReport(cmd, report, dryRun)
			return runErr
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Ignore cached state and rebuild everything")
	cmd.Flags().BoolVar(&refreshSidecars, "refresh-sidecars", false, "Regenerate sidecars even when present")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would happen without writing")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the build report as JSON")
	return cmd
}

// enrichmentCapability wires the vision client when enrichment is configured.
// A nil capability keeps sidecar synthesis on baseline metadata.
func enrichmentCapability(ctx *commandContext) sidecar.Capability {
	cfg, err := ctx.ensureConfig()
	if err != nil || !cfg.Enrichment.Enabled {
		return nil
	}
	client := vision.NewClient(vision.FromEnrichment(cfg.Enrichment))
	if !client.Available() {
		return nil
	}
	return client
}

func renderReport(cmd *cobra.Command, report *build.Report, dryRun bool) {
	out := cmd.OutOrStdout()

	generatedLabel := "Derivatives generated"
	if dryRun {
		generatedLabel = "Derivatives to generate"
	}
	rows := [][]string{
		{"Mode", string(report.Mode)},
		{"Inputs tracked", strconv.Itoa(report.InputsTracked)},
		{"Changed", fmt.Sprintf("+%d ~%d -%d", report.Added, report.Modified, report.Removed)},
		{"Documents", strconv.Itoa(report.Documents)},
		{generatedLabel, strconv.Itoa(report.DerivativesGenerated)},
		{"Derivatives reused", strconv.Itoa(report.DerivativesReused)},
		{"Derivatives pruned", strconv.Itoa(report.DerivativesPruned)},
		{"Sidecars created", strconv.Itoa(report.SidecarsCreated)},
		{"Sidecars kept", strconv.Itoa(report.SidecarsKept)},
		{"Datasets written", strconv.Itoa(report.DatasetsWritten)},
	}
	if report.SidecarsEnriched > 0 {
		rows = append(rows, []string{"Sidecars enriched", strconv.Itoa(report.SidecarsEnriched)})
	}
	if report.DerivativesFailed > 0 {
		rows = append(rows, []string{"Derivatives failed", strconv.Itoa(report.DerivativesFailed)})
	}
	fmt.Fprintln(out, renderTable([]string{"Build", report.BuildID}, rows, []columnAlignment{alignLeft, alignRight}))

	for _, warning := range report.Warnings {
		fmt.Fprintf(out, "warning: %s\n", warning)
	}
	if report.Error != "" {
		fmt.Fprintf(out, "aborted: %s\n", report.Error)
	}
}
