package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"media-catalog/internal/database"
	"media-catalog/internal/logging"
	"media-catalog/internal/startup"
	"media-catalog/internal/storage"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show catalog statistics and recent synchronization runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("--runs must be > 0, got %d", limit)
			}
			cfg, err := startup.LoadConfig(opts.configPath)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}

			store, err := storage.Open(cfg.CatalogDir, nil)
			if err != nil {
				return fmt.Errorf("failed to open catalog: %w", err)
			}
			journal, err := database.New(cmd.Context(), cfg.JournalPath)
			if err != nil {
				return fmt.Errorf("failed to open sync journal: %w", err)
			}
			defer func() {
				if err := journal.Close(); err != nil {
					logging.Warn("Failed to close sync journal: %v", err)
				}
			}()

			out := cmd.OutOrStdout()
			stats := store.GetStats()
			fmt.Fprintf(out, "Catalog:  %s\n", cfg.CatalogDir)
			fmt.Fprintf(out, "  Folders:   %d\n", stats.TotalFolders)
			fmt.Fprintf(out, "  Assets:    %d (%d corrupted)\n", stats.TotalAssets, stats.TotalCorruptedAssets)

			if last, err := journal.GetLastSuccessfulSync(cmd.Context()); err == nil && !last.IsZero() {
				fmt.Fprintf(out, "  Last sync: %s\n", last.Local().Format(time.RFC1123))
			}

			runs, err := journal.LastRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No synchronization runs recorded")
				return nil
			}

			fmt.Fprintln(out)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STARTED\tTRIGGER\tOUTCOME\tDURATION\tCREATED\tUPDATED\tDELETED\tBACKUP")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%d\t%d\t%d\t%s\n",
					r.StartedAt.Local().Format("2006-01-02 15:04:05"),
					r.Trigger,
					r.Outcome,
					r.Duration().Round(time.Millisecond),
					r.AssetsCreated,
					r.AssetsUpdated,
					r.AssetsDeleted,
					orNone(r.BackupAction),
				)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "runs", "n", 10, "Number of recent runs to show")
	return cmd
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
