//go:build unix

package platform

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// SetFileMetadata applies the permission bits and modification time of
// the source to an open destination file.
func SetFileMetadata(fd *os.File, mode os.FileMode, modTime time.Time) error {
	if err := unix.Fchmod(int(fd.Fd()), uint32(mode.Perm())); err != nil {
		return fmt.Errorf("fchmod: %w", err)
	}
	return setFdTimes(fd, mtimeOnly(modTime))
}

// SetLinkTimes sets the modification time of a symlink itself.
func SetLinkTimes(path string, modTime time.Time) error {
	if err := unix.UtimesNanoAt(unix.AT_FDCWD, path, mtimeOnly(modTime), unix.AT_SYMLINK_NOFOLLOW); err != nil {
		return fmt.Errorf("utimensat %s: %w", path, err)
	}
	return nil
}

func mtimeOnly(modTime time.Time) []unix.Timespec {
	return []unix.Timespec{
		{Nsec: unix.UTIME_OMIT},
		unix.NsecToTimespec(modTime.UnixNano()),
	}
}
