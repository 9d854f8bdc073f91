//go:build linux

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// preallocate reserves size bytes up front without changing the file's
// apparent size, so a failed copy never looks complete. fallocate is
// advisory and not supported on every filesystem; errors are ignored.
func preallocate(fd *os.File, size int64) {
	if size <= 0 {
		return
	}
	//nolint:errcheck // advisory
	unix.Fallocate(int(fd.Fd()), unix.FALLOC_FL_KEEP_SIZE, 0, size)
}
