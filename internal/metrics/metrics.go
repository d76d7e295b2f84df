package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_catalog_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Sync metrics
var (
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_sync_runs_total",
			Help: "Total number of synchronization runs by outcome",
		},
		[]string{"outcome"}, // "completed", "cancelled", "batch_exhausted", "failed", "skipped"
	)

	SyncIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_sync_running",
			Help: "Whether a synchronization run is in progress (1 = running, 0 = idle)",
		},
	)

	SyncLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_sync_last_run_timestamp",
			Help: "Timestamp of the last finished synchronization run",
		},
	)

	SyncRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_catalog_sync_run_duration_seconds",
			Help:    "Duration of synchronization runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
		},
	)

	SyncEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_sync_events_total",
			Help: "Total number of change events emitted, by reason",
		},
		[]string{"reason"},
	)

	SyncFolderErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_catalog_sync_folder_errors_total",
			Help: "Total number of folders abandoned because they could not be read",
		},
	)
)

// Fingerprint and thumbnail metrics
var (
	FingerprintDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_catalog_fingerprint_duration_seconds",
			Help:    "Time spent fingerprinting one asset, by hash algorithm",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"algorithm"},
	)

	FingerprintCorruptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_catalog_fingerprint_corrupt_total",
			Help: "Total number of assets catalogued as corrupted",
		},
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_catalog_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration by backend",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"backend"}, // "vips", "imaging"
	)

	ThumbnailErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_catalog_thumbnail_errors_total",
			Help: "Total number of thumbnails that could not be generated",
		},
	)
)

// Store metrics
var (
	StoreCommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_store_commits_total",
			Help: "Total number of catalog commits by status",
		},
		[]string{"status"}, // "success", "noop", "error", "cancelled"
	)

	StoreCommitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_catalog_store_commit_duration_seconds",
			Help:    "Catalog commit duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	StoreFilesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_store_files_written_total",
			Help: "Total number of table and blob files swapped in by commits",
		},
		[]string{"kind"}, // "table", "blob", "blob_deleted"
	)
)

// Backup metrics
var (
	BackupOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_backup_operations_total",
			Help: "Total number of backup checks by action",
		},
		[]string{"action"}, // "created", "updated", "unchanged", "error"
	)

	BackupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_catalog_backup_duration_seconds",
			Help:    "Time spent checking and writing the daily backup",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
	)

	BackupSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_backup_size_bytes",
			Help: "Size of the most recently written backup archive",
		},
	)
)

// Journal database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_db_queries_total",
			Help: "Total number of journal database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_catalog_db_query_duration_seconds",
			Help:    "Journal database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// Frame extraction metrics
var (
	FrameExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_frame_extractions_total",
			Help: "Total number of video first-frame extractions by status",
		},
		[]string{"status"}, // "success", "error", "skipped"
	)

	FrameExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_catalog_frame_extraction_duration_seconds",
			Help:    "Duration of video first-frame extraction",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

// Watcher metrics
var (
	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_watcher_events_total",
			Help: "Total number of filesystem watcher events by operation",
		},
		[]string{"operation"},
	)

	WatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_catalog_watcher_errors_total",
			Help: "Total number of filesystem watcher errors",
		},
	)

	WatchedDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_watched_directories",
			Help: "Number of directories currently watched",
		},
	)
)

// Catalog content metrics
var (
	CatalogAssetsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_assets",
			Help: "Number of assets in the live catalog",
		},
	)

	CatalogFoldersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_folders",
			Help: "Number of folders in the live catalog",
		},
	)

	CatalogCorruptedAssetsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_corrupted_assets",
			Help: "Number of catalogued assets flagged as corrupted",
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retries after a stale handle",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_filesystem_stale_errors_total",
			Help: "Total number of NFS stale file handle errors",
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_memory_paused",
			Help: "Whether thumbnail work is paused for memory pressure (1 = paused)",
		},
	)

	MemoryPausesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_catalog_memory_pauses_total",
			Help: "Total number of times thumbnail work was paused for memory pressure",
		},
	)
)
