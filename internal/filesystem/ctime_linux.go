//go:build linux

package filesystem

import (
	"os"
	"syscall"
	"time"
)

// CreationTime returns the inode change time, the closest Linux exposes
// through stat(2) to a creation time.
func CreationTime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	}
	return info.ModTime()
}
