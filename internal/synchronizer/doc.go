// Package synchronizer brings the catalog in line with the asset
// directories on disk.
//
// A run walks every configured root depth first. Each folder is announced
// with an inspecting event, diffed against its catalogued assets with
// Compare, and its added and updated files are fingerprinted and
// thumbnailed one at a time. Deletions follow. The folder's new asset set
// is handed to the store in a single ReplaceAssetsForFolder call.
//
// The number of added and updated assets per run is bounded by the batch
// size. Once the budget is spent the walk stops after the current folder's
// deletions. Cancellation is sampled at the top of each folder and before
// each asset; a cancelled run keeps its in-memory changes but does not
// commit them.
//
// Every run ends with the backup step and its two events, followed by two
// empty events that mark the end of the run. A pre-cancelled run, or one
// with a zero batch size, emits only those four events.
//
// Runner schedules runs: an initial run, periodic runs, manual triggers and
// watcher triggers, never more than one at a time.
package synchronizer
