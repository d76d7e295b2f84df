// Package catalog defines the values shared by every stage of a catalog
// synchronization: folders, assets, change events and the clock and
// identifier seams that keep runs deterministic in tests.
//
// An Asset is identified by its (FolderID, FileName) pair. Two assets may
// share a content hash (duplicates) without being the same asset. The Folder
// pointer on an Asset is resolved by the store at read time and is never
// persisted.
package catalog
