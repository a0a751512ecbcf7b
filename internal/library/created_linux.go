//go:build linux

package library

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// fileCreated returns the file's birth time from statx, following
// symlinks. Filesystems that do not record a birth time fall back to the
// modification time.
func fileCreated(path string, info os.FileInfo) time.Time {
	var stx unix.Statx_t

	err := unix.Statx(unix.AT_FDCWD, path, 0, unix.STATX_BTIME, &stx)
	if err != nil || stx.Mask&unix.STATX_BTIME == 0 {
		return info.ModTime()
	}

	return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))
}
