// Package frames extracts a representative still frame from video files
// with ffmpeg so the synchronizer can catalog videos as images.
//
// Frames are written as JPEG into a dedicated first-frame directory, named
// after the video with a .jpg extension. Existing frames are never
// regenerated.
package frames
