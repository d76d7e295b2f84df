package storage

import (
	"time"

	"media-catalog/internal/catalog"
)

// assetRow is the persisted form of catalog.Asset. Filesystem timestamps, the
// folder back-reference and the in-memory thumbnail are not stored.
type assetRow struct {
	FolderID                  string `parquet:"folder_id"`
	FileName                  string `parquet:"file_name"`
	FileSize                  int64  `parquet:"file_size"`
	PixelWidth                int32  `parquet:"pixel_width"`
	PixelHeight               int32  `parquet:"pixel_height"`
	ThumbnailPixelWidth       int32  `parquet:"thumbnail_pixel_width"`
	ThumbnailPixelHeight      int32  `parquet:"thumbnail_pixel_height"`
	ThumbnailCreationDateTime int64  `parquet:"thumbnail_creation_date_time"` // Unix nanoseconds, UTC
	ImageRotation             int32  `parquet:"image_rotation"`
	Hash                      string `parquet:"hash"`
	IsAssetCorrupted          bool   `parquet:"is_asset_corrupted"`
	AssetCorruptedMessage     string `parquet:"asset_corrupted_message"`
	IsAssetRotated            bool   `parquet:"is_asset_rotated"`
	AssetRotatedMessage       string `parquet:"asset_rotated_message"`
}

type folderRow struct {
	FolderID string `parquet:"folder_id"`
	Path     string `parquet:"path"`
}

type syncDirectoryRow struct {
	SourceDirectory         string `parquet:"source_directory"`
	DestinationDirectory    string `parquet:"destination_directory"`
	IncludeSubFolders       bool   `parquet:"include_sub_folders"`
	DeleteAssetsNotInSource bool   `parquet:"delete_assets_not_in_source"`
}

type recentTargetPathRow struct {
	Path string `parquet:"path"`
}

func toAssetRow(a catalog.Asset) assetRow {
	var created int64
	if !a.ThumbnailCreationDateTime.IsZero() {
		created = a.ThumbnailCreationDateTime.UnixNano()
	}
	return assetRow{
		FolderID:                  a.FolderID,
		FileName:                  a.FileName,
		FileSize:                  a.FileSize,
		PixelWidth:                int32(a.PixelWidth),
		PixelHeight:               int32(a.PixelHeight),
		ThumbnailPixelWidth:       int32(a.ThumbnailPixelWidth),
		ThumbnailPixelHeight:      int32(a.ThumbnailPixelHeight),
		ThumbnailCreationDateTime: created,
		ImageRotation:             int32(a.ImageRotation),
		Hash:                      a.Hash,
		IsAssetCorrupted:          a.IsAssetCorrupted,
		AssetCorruptedMessage:     a.AssetCorruptedMessage,
		IsAssetRotated:            a.IsAssetRotated,
		AssetRotatedMessage:       a.AssetRotatedMessage,
	}
}

func (r assetRow) toAsset() catalog.Asset {
	var created time.Time
	if r.ThumbnailCreationDateTime != 0 {
		created = time.Unix(0, r.ThumbnailCreationDateTime).UTC()
	}
	return catalog.Asset{
		FolderID:                  r.FolderID,
		FileName:                  r.FileName,
		FileSize:                  r.FileSize,
		PixelWidth:                int(r.PixelWidth),
		PixelHeight:               int(r.PixelHeight),
		ThumbnailPixelWidth:       int(r.ThumbnailPixelWidth),
		ThumbnailPixelHeight:      int(r.ThumbnailPixelHeight),
		ThumbnailCreationDateTime: created,
		ImageRotation:             catalog.Rotation(r.ImageRotation),
		Hash:                      r.Hash,
		IsAssetCorrupted:          r.IsAssetCorrupted,
		AssetCorruptedMessage:     r.AssetCorruptedMessage,
		IsAssetRotated:            r.IsAssetRotated,
		AssetRotatedMessage:       r.AssetRotatedMessage,
	}
}

func toSyncDirectoryRow(d catalog.SyncDirectory) syncDirectoryRow {
	return syncDirectoryRow(d)
}

func (r syncDirectoryRow) toSyncDirectory() catalog.SyncDirectory {
	return catalog.SyncDirectory(r)
}
