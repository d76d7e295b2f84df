package synchronizer

import (
	"time"

	"media-catalog/internal/catalog"
)

// FileEntry is one file found on disk during a folder walk.
type FileEntry struct {
	Name    string
	Size    int64
	ModTime time.Time
	// CreatedTime is the best available creation time of the file.
	CreatedTime time.Time
}

// Update pairs a changed file with the asset currently catalogued for it.
type Update struct {
	File     FileEntry
	Existing catalog.Asset
}

// Comparison is the difference between a folder on disk and its catalogued
// assets.
type Comparison struct {
	Added     []FileEntry
	Updated   []Update
	Deleted   []catalog.Asset
	Unchanged []catalog.Asset
}

// HasChanges reports whether anything was added, updated or deleted.
func (c Comparison) HasChanges() bool {
	return len(c.Added) > 0 || len(c.Updated) > 0 || len(c.Deleted) > 0
}

// Compare diffs the files of one folder against its catalogued assets.
// A file is updated when its modification time is later than the time its
// asset's thumbnail was created. Added and Updated follow the order of
// files; Deleted and Unchanged follow the order of catalogued.
// Names are compared exactly.
func Compare(files []FileEntry, catalogued []catalog.Asset) Comparison {
	byName := make(map[string]catalog.Asset, len(catalogued))
	for _, a := range catalogued {
		byName[a.FileName] = a
	}

	var cmp Comparison
	onDisk := make(map[string]bool, len(files))
	changed := make(map[string]bool)

	for _, f := range files {
		onDisk[f.Name] = true
		existing, ok := byName[f.Name]
		switch {
		case !ok:
			cmp.Added = append(cmp.Added, f)
		case f.ModTime.After(existing.ThumbnailCreationDateTime):
			cmp.Updated = append(cmp.Updated, Update{File: f, Existing: existing})
			changed[f.Name] = true
		}
	}

	for _, a := range catalogued {
		switch {
		case !onDisk[a.FileName]:
			cmp.Deleted = append(cmp.Deleted, a)
		case !changed[a.FileName]:
			cmp.Unchanged = append(cmp.Unchanged, a)
		}
	}
	return cmp
}
