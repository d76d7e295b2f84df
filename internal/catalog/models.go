package catalog

import (
	"image"
	"path/filepath"
	"time"
)

// Rotation is the clockwise rotation, in degrees, declared by an image.
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// Valid reports whether r is one of the four supported rotations.
func (r Rotation) Valid() bool {
	switch r {
	case Rotate0, Rotate90, Rotate180, Rotate270:
		return true
	}
	return false
}

// Folder is a catalog root or a subdirectory discovered under one.
type Folder struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// Name returns the last element of the folder path.
func (f Folder) Name() string {
	return filepath.Base(f.Path)
}

// IsParentOf reports whether f is an ancestor directory of other.
func (f Folder) IsParentOf(other Folder) bool {
	rel, err := filepath.Rel(f.Path, other.Path)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !filepath.IsAbs(rel) && !startsWithParent(rel)
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:2] == ".." && rel[2] == filepath.Separator
}

// AssetKey identifies an asset across the live catalog.
type AssetKey struct {
	FolderID string
	FileName string
}

// Asset is one catalogued media file.
type Asset struct {
	FolderID string  `json:"folderId"`
	Folder   *Folder `json:"-"`

	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`

	PixelWidth  int `json:"pixelWidth"`
	PixelHeight int `json:"pixelHeight"`

	ThumbnailPixelWidth       int       `json:"thumbnailPixelWidth"`
	ThumbnailPixelHeight      int       `json:"thumbnailPixelHeight"`
	ThumbnailCreationDateTime time.Time `json:"thumbnailCreationDateTime"`

	ImageRotation Rotation `json:"imageRotation"`
	Hash          string   `json:"hash"`

	IsAssetCorrupted      bool   `json:"isAssetCorrupted"`
	AssetCorruptedMessage string `json:"assetCorruptedMessage,omitempty"`
	IsAssetRotated        bool   `json:"isAssetRotated"`
	AssetRotatedMessage   string `json:"assetRotatedMessage,omitempty"`

	// Read from the filesystem when the asset is loaded.
	FileCreationDateTime     time.Time `json:"fileCreationDateTime"`
	FileModificationDateTime time.Time `json:"fileModificationDateTime"`

	// Transient in-memory thumbnail.
	Thumbnail image.Image `json:"-"`
}

// Key returns the identity of the asset.
func (a Asset) Key() AssetKey {
	return AssetKey{FolderID: a.FolderID, FileName: a.FileName}
}

// FullPath joins the resolved folder path and the file name. It returns the
// bare file name when the folder has not been resolved.
func (a Asset) FullPath() string {
	if a.Folder == nil {
		return a.FileName
	}
	return filepath.Join(a.Folder.Path, a.FileName)
}

// SyncDirectory describes a source/destination pair for asset syncing.
type SyncDirectory struct {
	SourceDirectory         string `json:"sourceDirectory"`
	DestinationDirectory    string `json:"destinationDirectory"`
	IncludeSubFolders       bool   `json:"includeSubFolders"`
	DeleteAssetsNotInSource bool   `json:"deleteAssetsNotInSource"`
}
