package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"media-catalog/internal/startup"
	"media-catalog/internal/synchronizer"
)

func newSyncCmd(opts *rootOptions) *cobra.Command {
	var (
		batchSize int
		quiet     bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one catalog synchronization",
		Long: `Walks every asset directory once, commits the changes and refreshes today's
backup. Interrupting the run keeps the catalog at its last committed state.`,
		Example: `  # Synchronize everything
  media-catalog sync

  # Process at most 50 new or changed assets
  media-catalog sync --batch-size 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var overrides []func(*startup.Config)
			if cmd.Flags().Changed("batch-size") {
				if batchSize < 0 {
					return fmt.Errorf("--batch-size must be >= 0, got %d", batchSize)
				}
				overrides = append(overrides, func(cfg *startup.Config) { cfg.BatchSize = batchSize })
			}

			a, err := openApp(cmd.Context(), opts, overrides...)
			if err != nil {
				return err
			}
			defer a.close()

			runner := synchronizer.NewRunner(a.syncer, a.journal, 0)
			printer := newProgressPrinter(os.Stdout)
			callback := printer.handle
			if quiet {
				callback = nil
			}

			summary, _ := runner.Run(cmd.Context(), synchronizer.TriggerCLI, callback)
			printer.clear()
			printSummary(cmd.OutOrStdout(), summary)

			if summary.CommitFailed {
				return fmt.Errorf("catalog commit failed")
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&batchSize, "batch-size", "b", 0, "Maximum new or changed assets to process (overrides CATALOG_BATCH_SIZE)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print the summary")

	return cmd
}
