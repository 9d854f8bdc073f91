//go:build unix && !linux

package platform

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

func setFdTimes(fd *os.File, times []unix.Timespec) error {
	if err := unix.UtimesNanoAt(unix.AT_FDCWD, fd.Name(), times, 0); err != nil {
		return fmt.Errorf("utimensat: %w", err)
	}
	return nil
}
