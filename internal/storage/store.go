package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"media-catalog/internal/catalog"
	"media-catalog/internal/filesystem"
	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
)

// Directory and table names under the catalog directory.
const (
	TablesDirName = "tables"
	BlobsDirName  = "blobs"

	AssetsTable            = "assets"
	FoldersTable           = "folders"
	SyncDirectoriesTable   = "syncassetsdirectoriesdefinitions"
	RecentTargetPathsTable = "recenttargetpaths"

	TableExt = ".parquet"
	BlobExt  = ".bin"
)

// MaxRecentTargetPaths caps the recent target path list.
const MaxRecentTargetPaths = 20

// ErrFolderNotFound is returned when an operation names an unknown folder.
var ErrFolderNotFound = errors.New("folder not found")

// ErrDuplicateAsset is returned when a folder replacement lists a file name twice.
var ErrDuplicateAsset = errors.New("duplicate asset in folder")

// Store holds the live catalog in memory and persists it on Commit.
type Store struct {
	mu sync.RWMutex

	dir       string
	tablesDir string
	blobsDir  string
	ids       catalog.IDGenerator

	folders      []*catalog.Folder // discovery order
	folderByPath map[string]*catalog.Folder
	folderByID   map[string]*catalog.Folder
	assets       map[string][]catalog.Asset // folder ID -> insertion order

	// thumbnails holds decoded blobs, loaded lazily per folder.
	thumbnails map[string]map[string][]byte

	syncDirectories   []catalog.SyncDirectory
	recentTargetPaths []string

	dirtyTables map[string]bool
	dirtyBlobs  map[string]bool
}

// Open loads the catalog stored under dir, creating the directory layout if
// needed. Tables whose files are missing start out dirty so the first Commit
// materializes them.
func Open(dir string, ids catalog.IDGenerator) (*Store, error) {
	if ids == nil {
		ids = catalog.UUIDGenerator{}
	}

	s := &Store{
		dir:          dir,
		tablesDir:    filepath.Join(dir, TablesDirName),
		blobsDir:     filepath.Join(dir, BlobsDirName),
		ids:          ids,
		folderByPath: make(map[string]*catalog.Folder),
		folderByID:   make(map[string]*catalog.Folder),
		assets:       make(map[string][]catalog.Asset),
		thumbnails:   make(map[string]map[string][]byte),
		dirtyTables:  make(map[string]bool),
		dirtyBlobs:   make(map[string]bool),
	}

	for _, d := range []string{s.tablesDir, s.blobsDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", d, err)
		}
		removeStaleTemps(d)
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	logging.Info("Catalog loaded from %s: %d folders, %d assets", dir, len(s.folders), s.assetCount())
	return s, nil
}

// Dir returns the catalog directory.
func (s *Store) Dir() string { return s.dir }

// TablesDir returns the directory holding the table files.
func (s *Store) TablesDir() string { return s.tablesDir }

// BlobsDir returns the directory holding the thumbnail blobs.
func (s *Store) BlobsDir() string { return s.blobsDir }

func (s *Store) tablePath(name string) string {
	return filepath.Join(s.tablesDir, name+TableExt)
}

func (s *Store) blobPath(folderID string) string {
	return filepath.Join(s.blobsDir, folderID+BlobExt)
}

func (s *Store) load() error {
	folderRows, ok, err := readTable[folderRow](s.tablePath(FoldersTable))
	if err != nil {
		return err
	}
	if !ok {
		s.dirtyTables[FoldersTable] = true
	}
	for _, r := range folderRows {
		if _, dup := s.folderByID[r.FolderID]; dup {
			logging.Warn("Ignoring duplicate folder id %s in catalog", r.FolderID)
			continue
		}
		if _, dup := s.folderByPath[r.Path]; dup {
			logging.Warn("Ignoring duplicate folder path %s in catalog", r.Path)
			continue
		}
		f := &catalog.Folder{ID: r.FolderID, Path: r.Path}
		s.folders = append(s.folders, f)
		s.folderByID[f.ID] = f
		s.folderByPath[f.Path] = f
	}

	assetRows, ok, err := readTable[assetRow](s.tablePath(AssetsTable))
	if err != nil {
		return err
	}
	if !ok {
		s.dirtyTables[AssetsTable] = true
	}
	seen := make(map[catalog.AssetKey]bool, len(assetRows))
	for _, r := range assetRows {
		folder, known := s.folderByID[r.FolderID]
		if !known {
			logging.Warn("Ignoring asset %s of unknown folder %s", r.FileName, r.FolderID)
			s.dirtyTables[AssetsTable] = true
			continue
		}
		a := r.toAsset()
		if seen[a.Key()] {
			logging.Warn("Ignoring duplicate asset %s in folder %s", a.FileName, folder.Path)
			s.dirtyTables[AssetsTable] = true
			continue
		}
		seen[a.Key()] = true
		a.Folder = folder
		attachFileTimes(&a)
		s.assets[a.FolderID] = append(s.assets[a.FolderID], a)
	}

	syncRows, ok, err := readTable[syncDirectoryRow](s.tablePath(SyncDirectoriesTable))
	if err != nil {
		return err
	}
	if !ok {
		s.dirtyTables[SyncDirectoriesTable] = true
	}
	for _, r := range syncRows {
		s.syncDirectories = append(s.syncDirectories, r.toSyncDirectory())
	}

	recentRows, ok, err := readTable[recentTargetPathRow](s.tablePath(RecentTargetPathsTable))
	if err != nil {
		return err
	}
	if !ok {
		s.dirtyTables[RecentTargetPathsTable] = true
	}
	for _, r := range recentRows {
		s.recentTargetPaths = append(s.recentTargetPaths, r.Path)
	}

	return nil
}

// attachFileTimes fills the filesystem timestamps of a loaded asset.
func attachFileTimes(a *catalog.Asset) {
	info, err := filesystem.StatWithRetry(a.FullPath(), filesystem.DefaultRetryConfig())
	if err != nil {
		return
	}
	a.FileModificationDateTime = info.ModTime()
	a.FileCreationDateTime = filesystem.CreationTime(info)
}

func (s *Store) assetCount() int {
	n := 0
	for _, list := range s.assets {
		n += len(list)
	}
	return n
}

func copyAssets(list []catalog.Asset) []catalog.Asset {
	out := make([]catalog.Asset, len(list))
	copy(out, list)
	return out
}

// GetAssetsByPath returns the assets of the folder at path, or an empty list
// when the folder is unknown.
func (s *Store) GetAssetsByPath(path string) []catalog.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.folderByPath[filepath.Clean(path)]
	if !ok {
		return []catalog.Asset{}
	}
	return copyAssets(s.assets[f.ID])
}

// GetAssetsByFolderID returns the assets of a folder in insertion order.
func (s *Store) GetAssetsByFolderID(folderID string) []catalog.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyAssets(s.assets[folderID])
}

// GetAllAssets returns the live catalog in folder discovery order, then
// asset insertion order within each folder.
func (s *Store) GetAllAssets() []catalog.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalog.Asset, 0, s.assetCount())
	for _, f := range s.folders {
		out = append(out, s.assets[f.ID]...)
	}
	return out
}

// GetAssetByName returns one asset of the folder at path.
func (s *Store) GetAssetByName(path, fileName string) (catalog.Asset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.folderByPath[filepath.Clean(path)]
	if !ok {
		return catalog.Asset{}, false
	}
	for _, a := range s.assets[f.ID] {
		if a.FileName == fileName {
			return a, true
		}
	}
	return catalog.Asset{}, false
}

// GetFolderByPath returns the folder registered for path, or nil.
func (s *Store) GetFolderByPath(path string) *catalog.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if f, ok := s.folderByPath[filepath.Clean(path)]; ok {
		return f
	}
	return nil
}

// GetFolderByID returns the folder with the given identifier, or nil.
func (s *Store) GetFolderByID(id string) *catalog.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if f, ok := s.folderByID[id]; ok {
		return f
	}
	return nil
}

// GetFolders returns all folders in discovery order.
func (s *Store) GetFolders() []catalog.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalog.Folder, len(s.folders))
	for i, f := range s.folders {
		out[i] = *f
	}
	return out
}

// UpsertFolder returns the folder registered for path, creating it with a
// fresh identifier when the path is new. created reports which happened.
func (s *Store) UpsertFolder(path string) (folder *catalog.Folder, created bool) {
	path = filepath.Clean(path)

	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.folderByPath[path]; ok {
		return f, false
	}

	f := &catalog.Folder{ID: s.ids.New(), Path: path}
	s.folders = append(s.folders, f)
	s.folderByID[f.ID] = f
	s.folderByPath[f.Path] = f
	s.dirtyTables[FoldersTable] = true

	logging.Debug("Catalog folder created: %s (%s)", f.Path, f.ID)
	return f, true
}

// ReplaceAssetsForFolder swaps the folder's asset list for assets in one
// step. thumbnails carries new thumbnail bytes by file name; assets without
// an entry keep their stored thumbnail. The folder blob is rewritten on the
// next Commit to hold exactly the listed assets.
func (s *Store) ReplaceAssetsForFolder(folderID string, assets []catalog.Asset, thumbnails map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	folder, ok := s.folderByID[folderID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrFolderNotFound, folderID)
	}

	existing, err := s.loadThumbnailsLocked(folderID)
	if err != nil {
		return err
	}

	next := make([]catalog.Asset, 0, len(assets))
	nextThumbs := make(map[string][]byte, len(assets))
	names := make(map[string]bool, len(assets))

	for _, a := range assets {
		if names[a.FileName] {
			return fmt.Errorf("%w: %s in %s", ErrDuplicateAsset, a.FileName, folder.Path)
		}
		names[a.FileName] = true

		a.FolderID = folderID
		a.Folder = folder
		a.Thumbnail = nil
		next = append(next, a)

		if data, ok := thumbnails[a.FileName]; ok && len(data) > 0 {
			nextThumbs[a.FileName] = data
		} else if data, ok := existing[a.FileName]; ok {
			nextThumbs[a.FileName] = data
		}
	}

	if len(next) == 0 {
		delete(s.assets, folderID)
	} else {
		s.assets[folderID] = next
	}
	s.thumbnails[folderID] = nextThumbs
	s.dirtyTables[AssetsTable] = true
	s.dirtyBlobs[folderID] = true
	return nil
}

// DeleteFolder removes a folder, all its assets and its blob.
func (s *Store) DeleteFolder(folderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.folderByID[folderID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrFolderNotFound, folderID)
	}

	for i, existing := range s.folders {
		if existing.ID == folderID {
			s.folders = append(s.folders[:i], s.folders[i+1:]...)
			break
		}
	}
	delete(s.folderByID, folderID)
	delete(s.folderByPath, f.Path)

	if _, had := s.assets[folderID]; had {
		delete(s.assets, folderID)
		s.dirtyTables[AssetsTable] = true
	}
	s.thumbnails[folderID] = map[string][]byte{}
	s.dirtyTables[FoldersTable] = true
	s.dirtyBlobs[folderID] = true

	logging.Debug("Catalog folder deleted: %s (%s)", f.Path, f.ID)
	return nil
}

// loadThumbnailsLocked returns the thumbnails of a folder, reading its blob
// on first use. Callers must hold s.mu.
func (s *Store) loadThumbnailsLocked(folderID string) (map[string][]byte, error) {
	if thumbs, ok := s.thumbnails[folderID]; ok {
		return thumbs, nil
	}
	thumbs, err := readBlob(s.blobPath(folderID))
	if err != nil {
		return nil, err
	}
	s.thumbnails[folderID] = thumbs
	return thumbs, nil
}

// GetThumbnail returns the stored JPEG thumbnail of an asset.
func (s *Store) GetThumbnail(folderID, fileName string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.folderByID[folderID]; !ok {
		return nil, false, fmt.Errorf("%w: %s", ErrFolderNotFound, folderID)
	}
	thumbs, err := s.loadThumbnailsLocked(folderID)
	if err != nil {
		return nil, false, err
	}
	data, ok := thumbs[fileName]
	return data, ok, nil
}

// ContainsThumbnail reports whether a thumbnail is stored for the asset.
func (s *Store) ContainsThumbnail(folderID, fileName string) bool {
	_, ok, err := s.GetThumbnail(folderID, fileName)
	return err == nil && ok
}

// GetSyncDirectories returns the configured sync directory definitions.
func (s *Store) GetSyncDirectories() []catalog.SyncDirectory {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalog.SyncDirectory, len(s.syncDirectories))
	copy(out, s.syncDirectories)
	return out
}

// SaveSyncDirectories replaces the sync directory definitions.
func (s *Store) SaveSyncDirectories(dirs []catalog.SyncDirectory) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.syncDirectories = append([]catalog.SyncDirectory(nil), dirs...)
	s.dirtyTables[SyncDirectoriesTable] = true
}

// GetRecentTargetPaths returns recently used target paths, most recent first.
func (s *Store) GetRecentTargetPaths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.recentTargetPaths...)
}

// SaveRecentTargetPaths stores paths, most recent first, dropping
// duplicates and keeping at most MaxRecentTargetPaths entries.
func (s *Store) SaveRecentTargetPaths(paths []string) {
	out := make([]string, 0, min(len(paths), MaxRecentTargetPaths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
		if len(out) == MaxRecentTargetPaths {
			break
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recentTargetPaths = out
	s.dirtyTables[RecentTargetPathsTable] = true
}

// HasChanges reports whether memory diverges from what was last committed.
func (s *Store) HasChanges() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dirtyTables) > 0 || len(s.dirtyBlobs) > 0
}

// GetStats implements metrics.StatsProvider.
func (s *Store) GetStats() metrics.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := metrics.Stats{TotalFolders: len(s.folders)}
	for _, list := range s.assets {
		stats.TotalAssets += len(list)
		for _, a := range list {
			if a.IsAssetCorrupted {
				stats.TotalCorruptedAssets++
			}
		}
	}
	return stats
}
