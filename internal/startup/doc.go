// Package startup handles configuration loading and startup/shutdown logging.
//
// # Configuration
//
// [LoadConfig] resolves a [Config] from, in increasing precedence: built-in
// defaults, an optional TOML file (the --config flag or CATALOG_CONFIG), a
// .env file loaded by the CLI, and environment variables:
//
//   - ASSET_DIRS: root asset directories, separated by the OS path-list separator
//   - CATALOG_DIR: directory holding tables/, blobs/, backups/ and journal.db (default: ./catalog)
//   - CATALOG_BATCH_SIZE: maximum added or updated assets per run (default: 100, 0 disables processing)
//   - THUMBNAIL_MAX_WIDTH, THUMBNAIL_MAX_HEIGHT: thumbnail bounds (default: 200x150)
//   - HASH_SHA512, HASH_MD5, HASH_BLAKE2B, HASH_PHASH, HASH_DHASH: hash selection (default: SHA-512)
//   - ANALYSE_VIDEOS: extract and catalog first frames of videos (default: false)
//   - FIRST_FRAME_DIR: where first frames are written (default: CATALOG_DIR/firstframes)
//   - FFMPEG_PATH: ffmpeg binary (default: ffmpeg)
//   - PORT: HTTP port for serve (default: 8080)
//   - SYNC_INTERVAL: periodic sync interval as Go duration (default: 30m)
//   - WATCH_ENABLED: trigger syncs from filesystem events (default: false)
//   - BACKUP_ENABLED: write daily backup archives (default: true)
//   - LOG_HEALTH_CHECKS: log health check requests (default: false)
//
// Invalid values log a warning and keep the lower-precedence value. An
// unreadable or malformed config file is an error.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup
