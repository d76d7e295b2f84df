package cmd

import (
	"fmt"
	"io"
	"time"

	"media-catalog/internal/synchronizer"
)

func printSummary(w io.Writer, s synchronizer.Summary) {
	fmt.Fprintf(w, "Synchronization %s in %v\n", s.Outcome(), s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "  Folders: %d inspected, %d created, %d deleted\n", s.FoldersInspected, s.FoldersCreated, s.FoldersDeleted)
	fmt.Fprintf(w, "  Assets:  %d created, %d updated, %d deleted\n", s.AssetsCreated, s.AssetsUpdated, s.AssetsDeleted)
	if s.Backup != "" {
		fmt.Fprintf(w, "  Backup:  %s\n", s.Backup)
	}
	if len(s.Errors) > 0 {
		fmt.Fprintf(w, "  Errors:  %d\n", len(s.Errors))
		for _, e := range s.Errors {
			fmt.Fprintf(w, "    - %s\n", e)
		}
	}
}
