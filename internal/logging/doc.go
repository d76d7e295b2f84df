// Package logging provides the leveled logger used across the catalog
// synchronizer.
//
// Levels, lowest first:
//   - DEBUG: per-file decisions made during a walk
//   - INFO: run lifecycle, folder creation and backups
//   - WARN: recoverable problems (corrupt media, unreadable folders)
//   - ERROR: failed commits, failed backups
//
// The level comes from the LOG_LEVEL environment variable, or DEBUG=true,
// and can be overridden at runtime with SetLevel (the CLI --verbose flag does
// this).
package logging
