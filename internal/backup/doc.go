// Package backup keeps one zip archive per calendar day of the catalog's
// tables and blobs directories.
//
// EnsureBackup names today's archive yyyyMMdd.zip. When no such archive
// exists it is created from the live files. When it exists, its entries are
// compared byte for byte with the live files and the archive is rebuilt
// only if they differ. Older archives are never pruned.
//
// Archives are written to a hidden temp file in the backups directory and
// renamed into place, so a failed backup never leaves a truncated archive
// under today's name.
package backup
