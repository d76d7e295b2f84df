// Package cmd holds the media-catalog command tree.
//
//	media-catalog serve    # HTTP API, periodic and watched synchronization
//	media-catalog sync     # one synchronization pass with progress output
//	media-catalog backup   # ensure today's catalog backup, or list backups
//	media-catalog status   # catalog statistics and recent runs
//
// Configuration comes from an optional TOML file (--config or
// CATALOG_CONFIG), overridden by environment variables. A .env file in the
// working directory is loaded first when present.
package cmd
