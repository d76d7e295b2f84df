// Package metrics provides Prometheus instrumentation for the catalog
// synchronizer. All metrics are prefixed with "media_catalog_".
//
// # Metric Categories
//
//   - Sync: run counts by outcome, run duration, events by reason, batch
//     exhaustion and per-folder errors
//   - Fingerprint and thumbnail: decode/hash/resize durations, corrupt assets
//   - Store: commit counts and duration, staged files written by kind
//   - Backup: archive actions (created, updated, unchanged, error) and size
//   - Journal: SQLite query counts and durations
//   - Filesystem: NFS stale-handle retries, by operation and volume
//   - Frames: video first-frame extractions
//   - Watcher: filesystem events and watched directory count
//   - Catalog: asset and folder totals, refreshed by Collector
//   - HTTP: request totals, durations and in-flight requests
//
// Metrics are registered on the default registry through promauto and served
// by the /metrics route of the serve command.
package metrics
