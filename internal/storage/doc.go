// Package storage is the durable catalog store.
//
// The live catalog is held in memory and persisted under a catalog directory:
//
//	tables/assets.parquet
//	tables/folders.parquet
//	tables/syncassetsdirectoriesdefinitions.parquet
//	tables/recenttargetpaths.parquet
//	blobs/<folderId>.bin
//
// Each table is one Parquet file. Each blob is a deterministic CBOR map from
// file name to JPEG thumbnail bytes for every asset of one folder.
//
// Mutations only touch memory and mark the affected tables and blobs dirty.
// [Store.Commit] stages every dirty file as a temp file first and renames them
// into place only when all staging succeeded, so an interrupted commit never
// leaves a table partially rewritten and keeps [Store.HasChanges] true.
package storage
