//go:build !linux

package filesystem

import (
	"os"
	"time"
)

// CreationTime falls back to the modification time where stat(2) carries
// no usable creation time.
func CreationTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
