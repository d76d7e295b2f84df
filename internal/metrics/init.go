package metrics

// InitializeMetrics pre-populates the expected label combinations so every
// metric is exported from the first Prometheus scrape.
func InitializeMetrics() {
	for _, outcome := range []string{"completed", "cancelled", "batch_exhausted", "failed", "skipped"} {
		SyncRunsTotal.WithLabelValues(outcome)
	}

	// Message and terminator events carry no reason and are not counted.
	for _, reason := range []string{"FolderInspected", "FolderCreated", "FolderDeleted",
		"AssetCreated", "AssetUpdated", "AssetDeleted"} {
		SyncEventsTotal.WithLabelValues(reason)
	}

	for _, status := range []string{"success", "noop", "error", "cancelled"} {
		StoreCommitsTotal.WithLabelValues(status)
	}

	for _, kind := range []string{"table", "blob", "blob_deleted"} {
		StoreFilesWritten.WithLabelValues(kind)
	}

	for _, action := range []string{"created", "updated", "unchanged", "error"} {
		BackupOperationsTotal.WithLabelValues(action)
	}

	for _, status := range []string{"success", "error", "skipped"} {
		FrameExtractionsTotal.WithLabelValues(status)
	}

	volumes := []string{"assets", "catalog", "unknown"}
	for _, op := range []string{"stat", "open", "readdir", "read"} {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
		}
	}
}
