package mediatypes

import (
	"path/filepath"
	"strings"
)

// FileType represents the kind of a file found during a walk.
type FileType string

const (
	// FileTypeImage is a decodable still image.
	FileTypeImage FileType = "image"
	// FileTypeVideo is a video whose first frame is catalogued.
	FileTypeVideo FileType = "video"
	// FileTypeOther is ignored by the catalog.
	FileTypeOther FileType = "other"
)

// ImageExtensions lists the image formats the fingerprinter can decode.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".jfif": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
	".heic": true,
	".heif": true,
}

// VideoExtensions lists the formats handed to the video frame collaborator.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
	".ts":   true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".jfif": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".3gp":  "video/3gpp",
	".ts":   "video/mp2t",
}

// Ext returns the lowercase extension of name, including the dot.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// Classify returns the FileType of a file name based on its extension.
func Classify(name string) FileType {
	ext := Ext(name)
	if ImageExtensions[ext] {
		return FileTypeImage
	}
	if VideoExtensions[ext] {
		return FileTypeVideo
	}
	return FileTypeOther
}

// IsImage reports whether name has a catalogued image extension.
func IsImage(name string) bool {
	return Classify(name) == FileTypeImage
}

// IsVideo reports whether name has a video extension.
func IsVideo(name string) bool {
	return Classify(name) == FileTypeVideo
}

// IsHidden reports whether a file or directory name is hidden.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// GetMimeType returns the MIME type for a file name.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(name string) string {
	if mime, ok := MimeTypes[Ext(name)]; ok {
		return mime
	}
	return "application/octet-stream"
}

// FirstFrameName returns the name of the still image extracted from a video.
func FirstFrameName(videoName string) string {
	return strings.TrimSuffix(videoName, filepath.Ext(videoName)) + ".jpg"
}
