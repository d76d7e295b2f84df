// Package memory sizes the Go heap limit from the container environment and
// provides backpressure for thumbnail and fingerprint work.
//
// [ConfigureFromEnv] should run early in main. When GOMEMLIMIT is unset and
// MEMORY_LIMIT carries the container limit in bytes (typically from the
// Kubernetes Downward API), the heap limit becomes MEMORY_LIMIT * MEMORY_RATIO
// (default 0.85), leaving room for ffmpeg and libvips allocations.
//
// A [Monitor] samples heap usage against that limit. Once usage crosses the
// critical mark, [Monitor.Wait] blocks callers until usage falls back below
// the high mark. Without a limit the monitor never blocks.
package memory
