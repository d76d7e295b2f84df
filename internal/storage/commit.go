package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
)

type stagedFile struct {
	tmp  string
	dest string
	kind string
}

// Commit persists every dirty table and blob. Each file is staged to a temp
// file first; the targets are only replaced once all of them were staged, so
// a failed or cancelled commit leaves the previous files in place and the
// store still dirty. Commit on a clean store is a no-op.
func (s *Store) Commit(ctx context.Context) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.dirtyTables) == 0 && len(s.dirtyBlobs) == 0 {
		metrics.StoreCommitsTotal.WithLabelValues("noop").Inc()
		return nil
	}

	start := time.Now()
	defer func() {
		metrics.StoreCommitDuration.Observe(time.Since(start).Seconds())
		switch {
		case err == nil:
			metrics.StoreCommitsTotal.WithLabelValues("success").Inc()
		case ctx.Err() != nil:
			metrics.StoreCommitsTotal.WithLabelValues("cancelled").Inc()
		default:
			metrics.StoreCommitsTotal.WithLabelValues("error").Inc()
		}
	}()

	var staged []stagedFile
	defer func() {
		if err != nil {
			for _, f := range staged {
				_ = os.Remove(f.tmp)
			}
		}
	}()

	var removals []string

	for _, name := range sortedKeys(s.dirtyTables) {
		if err := ctx.Err(); err != nil {
			return err
		}
		tmp, err := s.stageTableLocked(name)
		if err != nil {
			return err
		}
		staged = append(staged, stagedFile{tmp: tmp, dest: s.tablePath(name), kind: "table"})
	}

	for _, folderID := range sortedKeys(s.dirtyBlobs) {
		if err := ctx.Err(); err != nil {
			return err
		}
		thumbs := s.thumbnails[folderID]
		if _, live := s.folderByID[folderID]; !live || len(thumbs) == 0 {
			removals = append(removals, s.blobPath(folderID))
			continue
		}
		tmp, err := stageBlob(s.blobPath(folderID), thumbs)
		if err != nil {
			return err
		}
		staged = append(staged, stagedFile{tmp: tmp, dest: s.blobPath(folderID), kind: "blob"})
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	for i, f := range staged {
		if err := os.Rename(f.tmp, f.dest); err != nil {
			// Already renamed files are committed; drop them from cleanup.
			staged = staged[i:]
			return fmt.Errorf("failed to replace %s: %w", filepath.Base(f.dest), err)
		}
		metrics.StoreFilesWritten.WithLabelValues(f.kind).Inc()
	}
	staged = nil

	for _, path := range removals {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logging.Warn("failed to remove blob %s: %v", path, err)
			continue
		}
		metrics.StoreFilesWritten.WithLabelValues("blob_deleted").Inc()
	}

	for folderID := range s.dirtyBlobs {
		if _, live := s.folderByID[folderID]; !live {
			delete(s.thumbnails, folderID)
		}
	}
	clear(s.dirtyTables)
	clear(s.dirtyBlobs)

	logging.Debug("Catalog committed in %v", time.Since(start))
	return nil
}

func (s *Store) stageTableLocked(name string) (string, error) {
	dest := s.tablePath(name)
	var (
		tmp string
		err error
	)
	switch name {
	case AssetsTable:
		rows := make([]assetRow, 0, s.assetCount())
		for _, f := range s.folders {
			for _, a := range s.assets[f.ID] {
				rows = append(rows, toAssetRow(a))
			}
		}
		tmp, err = stageTable(dest, rows)
	case FoldersTable:
		rows := make([]folderRow, len(s.folders))
		for i, f := range s.folders {
			rows[i] = folderRow{FolderID: f.ID, Path: f.Path}
		}
		tmp, err = stageTable(dest, rows)
	case SyncDirectoriesTable:
		rows := make([]syncDirectoryRow, len(s.syncDirectories))
		for i, d := range s.syncDirectories {
			rows[i] = toSyncDirectoryRow(d)
		}
		tmp, err = stageTable(dest, rows)
	case RecentTargetPathsTable:
		rows := make([]recentTargetPathRow, len(s.recentTargetPaths))
		for i, p := range s.recentTargetPaths {
			rows[i] = recentTargetPathRow{Path: p}
		}
		tmp, err = stageTable(dest, rows)
	default:
		return "", fmt.Errorf("unknown table %q", name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stage table %s: %w", name, err)
	}
	return tmp, nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
