//go:build !linux && !darwin

package library

import (
	"os"
	"time"
)

// fileCreated falls back to the modification time on platforms without
// a portable birth time.
func fileCreated(_ string, info os.FileInfo) time.Time {
	return info.ModTime()
}
