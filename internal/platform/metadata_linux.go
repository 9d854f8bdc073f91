//go:build linux

package platform

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// setFdTimes stamps mtime on an open descriptor, leaving atime untouched.
func setFdTimes(fd *os.File, times []unix.Timespec) error {
	if err := unix.UtimesNanoAt(int(fd.Fd()), "", times, unix.AT_EMPTY_PATH); err != nil {
		// Fallback: some kernels reject AT_EMPTY_PATH for utimensat.
		if err2 := unix.UtimesNanoAt(unix.AT_FDCWD, fd.Name(), times, 0); err2 != nil {
			return fmt.Errorf("utimensat: %w", err)
		}
	}
	return nil
}
