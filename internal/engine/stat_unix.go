//go:build unix

package engine

import (
	"io/fs"
	"syscall"
)

// DevIno uniquely identifies an inode.
type DevIno struct {
	Dev uint64
	Ino uint64
}

// devInoOf extracts the device/inode pair from a stat result.
func devInoOf(info fs.FileInfo) (DevIno, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return DevIno{}, false
	}
	return DevIno{Dev: uint64(st.Dev), Ino: uint64(st.Ino)}, true //nolint:unconvert // Dev is int32 on darwin
}
