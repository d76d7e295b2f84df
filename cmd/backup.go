package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"media-catalog/internal/backup"
	"media-catalog/internal/memory"
	"media-catalog/internal/startup"
	"media-catalog/internal/storage"
)

func newBackupCmd(opts *rootOptions) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Ensure today's catalog backup exists and matches the catalog",
		Long: `Creates backups/yyyyMMdd.zip from the committed catalog tables and blobs, or
rewrites it when the catalog changed since it was written. With --list, prints
the existing backups instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := startup.LoadConfig(opts.configPath)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			mgr := backup.New(cfg.CatalogDir, storage.TablesDirName, storage.BlobsDirName)
			out := cmd.OutOrStdout()

			if list {
				archives, err := mgr.List()
				if err != nil {
					return err
				}
				if len(archives) == 0 {
					fmt.Fprintf(out, "No backups in %s\n", mgr.Dir())
					return nil
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tSIZE\tWRITTEN")
				for _, a := range archives {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Name, memory.FormatBytes(a.Size), a.ModTime.Format(time.RFC3339))
				}
				return tw.Flush()
			}

			result, err := mgr.EnsureBackup(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %s (%s)\n", result.Action, result.Path, memory.FormatBytes(result.Size))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List existing backups")
	return cmd
}
