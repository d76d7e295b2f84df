// Package media decodes image bytes and renders catalog thumbnails.
//
// Thumbnails are scaled to fit a bounding box with aspect ratio preserved,
// corrected for EXIF orientation, and encoded as JPEG. libvips is used when
// it was initialized with [InitVips]; otherwise the pure Go imaging path runs.
package media
