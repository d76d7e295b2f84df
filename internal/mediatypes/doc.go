// Package mediatypes classifies files found during a catalog walk.
//
// It is a dependency-free foundation imported by the synchronizer, the
// fingerprinter and the watcher:
//
//	mediatypes.Classify("IMG_0001.JPG") // FileTypeImage
//	mediatypes.Classify("clip.mp4")     // FileTypeVideo
//	mediatypes.Classify("notes.txt")    // FileTypeOther
//
// Only images are catalogued directly. Videos are catalogued through the
// still frame extracted into the first-frame folder. Hidden entries (names
// starting with '.') are never catalogued.
package mediatypes
