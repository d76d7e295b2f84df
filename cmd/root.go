package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"media-catalog/internal/logging"
	"media-catalog/internal/startup"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "media-catalog",
		Short: "Keep a durable catalog of image assets in sync with disk",
		Long: `media-catalog walks asset directories, fingerprints and thumbnails new or
changed images, commits the catalog atomically and keeps a daily backup.`,
		Version:       startup.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			if opts.verbose {
				logging.SetLevel(logging.LevelDebug)
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a TOML config file (default $CATALOG_CONFIG)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newSyncCmd(opts))
	cmd.AddCommand(newBackupCmd(opts))
	cmd.AddCommand(newStatusCmd(opts))

	return cmd
}
