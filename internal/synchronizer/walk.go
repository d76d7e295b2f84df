package synchronizer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"media-catalog/internal/catalog"
	"media-catalog/internal/filesystem"
	"media-catalog/internal/fingerprint"
	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
	"media-catalog/internal/mediatypes"
)

// folderListing is what a folder holds on disk.
type folderListing struct {
	files   []FileEntry
	videos  []string
	subdirs []string
	present map[string]bool // every non-hidden subdirectory name
}

func (s *Synchronizer) walkRoots(ctx context.Context, st *runState) {
	for _, root := range s.opts.Roots {
		if st.halted(ctx) {
			return
		}
		s.syncFolder(ctx, st, filepath.Clean(root), true)
	}
}

// syncFolder brings one folder up to date and, when recurse is set, its
// subfolders after it.
func (s *Synchronizer) syncFolder(ctx context.Context, st *runState, path string, recurse bool) {
	if st.halted(ctx) {
		return
	}

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		if os.IsNotExist(err) {
			s.removeFolderTree(st, path)
			return
		}
		metrics.SyncFolderErrors.Inc()
		st.fail(s.store.GetFolderByPath(path), fmt.Errorf("failed to stat folder %s: %w", path, err))
		return
	}
	if !info.IsDir() {
		logging.Warn("%s is no longer a directory", path)
		s.removeFolderTree(st, path)
		return
	}

	listing, err := s.list(path)
	if err != nil {
		metrics.SyncFolderErrors.Inc()
		st.fail(s.store.GetFolderByPath(path), fmt.Errorf("failed to read folder %s: %w", path, err))
		return
	}

	folder, created := s.store.UpsertFolder(path)
	existing := s.store.GetAssetsByFolderID(folder.ID)

	reason := catalog.ReasonFolderInspected
	if created {
		reason = catalog.ReasonFolderCreated
	}
	st.emit(catalog.ChangeEvent{Folder: folder, CataloguedAssets: existing, Reason: reason})
	logging.Debug("Inspecting folder %s (%d catalogued)", path, len(existing))

	s.syncAssets(ctx, st, folder, existing, listing.files)

	if len(listing.videos) > 0 && s.opts.AnalyseVideos && !st.checkCancel(ctx) {
		s.syncFirstFrames(ctx, st, folder, listing.videos)
	}

	s.removeVanishedSubfolders(st, path, listing.present)

	if !recurse {
		return
	}
	for _, sub := range listing.subdirs {
		if st.halted(ctx) {
			return
		}
		s.syncFolder(ctx, st, sub, true)
	}
}

// list reads a folder, skipping hidden entries and the first-frame folder.
func (s *Synchronizer) list(path string) (folderListing, error) {
	entries, err := filesystem.ReadDirWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return folderListing{}, err
	}

	listing := folderListing{present: make(map[string]bool)}
	for _, e := range entries {
		name := e.Name()
		if mediatypes.IsHidden(name) {
			continue
		}
		full := filepath.Join(path, name)

		if e.IsDir() {
			listing.present[name] = true
			if s.isFirstFrameDir(full) {
				continue
			}
			listing.subdirs = append(listing.subdirs, full)
			continue
		}

		switch mediatypes.Classify(name) {
		case mediatypes.FileTypeImage:
			info, err := filesystem.StatWithRetry(full, filesystem.DefaultRetryConfig())
			if err != nil {
				logging.Warn("Skipping %s: %v", full, err)
				continue
			}
			if !info.Mode().IsRegular() {
				continue
			}
			listing.files = append(listing.files, FileEntry{
				Name:        name,
				Size:        info.Size(),
				ModTime:     info.ModTime(),
				CreatedTime: filesystem.CreationTime(info),
			})
		case mediatypes.FileTypeVideo:
			listing.videos = append(listing.videos, full)
		}
	}
	return listing, nil
}

func (s *Synchronizer) isFirstFrameDir(path string) bool {
	return s.opts.FirstFrameDir != "" && filepath.Clean(path) == filepath.Clean(s.opts.FirstFrameDir)
}

// syncAssets applies the difference between files and the folder's
// catalogued assets, then hands the new set to the store.
func (s *Synchronizer) syncAssets(ctx context.Context, st *runState, folder *catalog.Folder, existing []catalog.Asset, files []FileEntry) {
	cmp := Compare(files, existing)
	if !cmp.HasChanges() {
		return
	}

	working := newAssetList(existing)
	thumbnails := make(map[string][]byte)
	changed := false

	jobs := make([]buildJob, 0, len(cmp.Added)+len(cmp.Updated))
	for _, f := range cmp.Added {
		jobs = append(jobs, buildJob{file: f, reason: catalog.ReasonAssetCreated})
	}
	for _, u := range cmp.Updated {
		jobs = append(jobs, buildJob{file: u.File, reason: catalog.ReasonAssetUpdated})
	}

	pf := s.prefetch(ctx, folder, jobs, st.budget)
	defer pf.wait()

	for i, job := range jobs {
		if !st.reserve(ctx) {
			break
		}
		res := pf.get(i)
		if res.err != nil {
			if st.checkCancel(ctx) {
				break
			}
			st.fail(folder, res.err)
			continue
		}
		st.consume()
		asset := res.asset
		working.put(asset)
		thumbnails[asset.FileName] = res.thumb
		changed = true
		st.emit(catalog.ChangeEvent{
			Asset:            &asset,
			Folder:           folder,
			CataloguedAssets: working.snapshot(),
			Reason:           job.reason,
		})
	}

	for _, a := range cmp.Deleted {
		working.remove(a.FileName)
		changed = true
		deleted := a
		st.emit(catalog.ChangeEvent{
			Asset:            &deleted,
			Folder:           folder,
			CataloguedAssets: working.snapshot(),
			Reason:           catalog.ReasonAssetDeleted,
		})
	}

	if !changed {
		return
	}
	if err := s.store.ReplaceAssetsForFolder(folder.ID, working.assets, thumbnails); err != nil {
		st.fail(folder, fmt.Errorf("failed to store assets of %s: %w", folder.Path, err))
	}
}

// buildAsset fingerprints and thumbnails one file. Undecodable files yield
// a corrupted asset rather than an error.
func (s *Synchronizer) buildAsset(folder *catalog.Folder, f FileEntry) (catalog.Asset, []byte, error) {
	full := fullPath(folder, f)
	data, err := filesystem.ReadFileWithRetry(full, filesystem.DefaultRetryConfig())
	if err != nil {
		return catalog.Asset{}, nil, fmt.Errorf("failed to read %s: %w", full, err)
	}

	fp := s.fingerprints.Fingerprint(data)

	thumbCreated := s.clock.Now()
	if thumbCreated.Before(f.ModTime) {
		thumbCreated = f.ModTime
	}

	asset := catalog.Asset{
		FolderID:                  folder.ID,
		Folder:                    folder,
		FileName:                  f.Name,
		FileSize:                  fp.Size,
		PixelWidth:                fp.Width,
		PixelHeight:               fp.Height,
		ThumbnailCreationDateTime: thumbCreated,
		ImageRotation:             fp.Rotation,
		Hash:                      fp.Hash,
		IsAssetCorrupted:          fp.Corrupted,
		AssetCorruptedMessage:     fp.CorruptedMessage,
		FileCreationDateTime:      f.CreatedTime,
		FileModificationDateTime:  f.ModTime,
	}
	if fp.Corrupted {
		return asset, nil, nil
	}

	thumb, err := s.thumbnails.Generate(data, s.opts.ThumbnailMaxWidth, s.opts.ThumbnailMaxHeight)
	if err != nil {
		logging.Warn("Failed to generate thumbnail for %s: %v", full, err)
		asset.IsAssetCorrupted = true
		asset.AssetCorruptedMessage = fingerprint.CorruptedMessage
		return asset, nil, nil
	}

	asset.ThumbnailPixelWidth = thumb.Width
	asset.ThumbnailPixelHeight = thumb.Height
	asset.IsAssetRotated = thumb.Rotated
	asset.AssetRotatedMessage = thumb.RotationMessage
	asset.Thumbnail = thumb.Image
	return asset, thumb.Data, nil
}

// syncFirstFrames extracts the first frame of each video into the
// first-frame folder and then synchronizes that folder.
func (s *Synchronizer) syncFirstFrames(ctx context.Context, st *runState, owner *catalog.Folder, videos []string) {
	for _, video := range videos {
		if st.checkCancel(ctx) {
			return
		}
		path, created, err := s.frames.ExtractFirstFrame(ctx, video, s.opts.FirstFrameDir)
		if err != nil {
			if st.checkCancel(ctx) {
				return
			}
			st.fail(owner, fmt.Errorf("failed to extract first frame of %s: %w", video, err))
			continue
		}
		if created {
			logging.Debug("First frame of %s written to %s", video, path)
		}
	}

	if _, err := os.Stat(s.opts.FirstFrameDir); err != nil {
		return
	}
	s.syncFolder(ctx, st, filepath.Clean(s.opts.FirstFrameDir), false)
}

// removeVanishedSubfolders deletes known direct subfolders of path that no
// longer exist on disk.
func (s *Synchronizer) removeVanishedSubfolders(st *runState, path string, present map[string]bool) {
	for _, f := range s.store.GetFolders() {
		if filepath.Dir(f.Path) != path || f.Path == path || s.isFirstFrameDir(f.Path) {
			continue
		}
		if present[filepath.Base(f.Path)] {
			continue
		}
		s.removeFolderTree(st, f.Path)
	}
}

// removeFolderTree deletes the known folder at path and every known folder
// below it, emitting one FolderDeleted event each. A path unknown to the
// catalog is ignored.
func (s *Synchronizer) removeFolderTree(st *runState, path string) {
	root := catalog.Folder{Path: path}
	var doomed []catalog.Folder
	for _, f := range s.store.GetFolders() {
		if f.Path == path || root.IsParentOf(f) {
			doomed = append(doomed, f)
		}
	}
	if len(doomed) == 0 {
		logging.Warn("Asset directory %s is not available", path)
		return
	}

	for _, f := range doomed {
		if err := s.store.DeleteFolder(f.ID); err != nil {
			st.fail(nil, fmt.Errorf("failed to delete folder %s: %w", f.Path, err))
			continue
		}
		deleted := f
		logging.Info("Folder %s no longer exists, removed from catalog", f.Path)
		st.emit(catalog.ChangeEvent{Folder: &deleted, Reason: catalog.ReasonFolderDeleted})
	}
}

// assetList is a folder's asset set in insertion order.
type assetList struct {
	assets []catalog.Asset
}

func newAssetList(existing []catalog.Asset) *assetList {
	return &assetList{assets: append([]catalog.Asset(nil), existing...)}
}

// put replaces the asset with the same name in place or appends it.
func (l *assetList) put(a catalog.Asset) {
	for i := range l.assets {
		if l.assets[i].FileName == a.FileName {
			l.assets[i] = a
			return
		}
	}
	l.assets = append(l.assets, a)
}

func (l *assetList) remove(name string) {
	for i := range l.assets {
		if l.assets[i].FileName == name {
			l.assets = append(l.assets[:i], l.assets[i+1:]...)
			return
		}
	}
}

func (l *assetList) snapshot() []catalog.Asset {
	return append([]catalog.Asset(nil), l.assets...)
}
