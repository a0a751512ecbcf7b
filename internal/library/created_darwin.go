//go:build darwin

package library

import (
	"os"
	"syscall"
	"time"
)

// fileCreated returns the file's birth time.
func fileCreated(_ string, info os.FileInfo) time.Time {
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime()
	}

	return time.Unix(sys.Birthtimespec.Sec, sys.Birthtimespec.Nsec)
}
