// Package platform implements the single-file byte-copy primitive: moving
// the contents of one open file into another with the fastest mechanism the
// kernel offers, then stamping the source's permission bits and
// modification time onto the destination.
package platform

import (
	"errors"
	"os"
)

// ErrUnsupportedType is returned for entries that are neither regular
// files nor symbolic links (fifos, sockets, devices).
var ErrUnsupportedType = errors.New("unsupported file type")

// CopyMethod identifies which syscall/strategy was used for a copy.
type CopyMethod int

const (
	ReadWrite     CopyMethod = iota
	CopyFileRange            // Linux copy_file_range(2)
	Sendfile                 // Linux sendfile(2)
	Stream                   // plain io.Copy through a wrapped reader
)

func (m CopyMethod) String() string {
	switch m {
	case ReadWrite:
		return "read_write"
	case CopyFileRange:
		return "copy_file_range"
	case Sendfile:
		return "sendfile"
	case Stream:
		return "stream"
	default:
		return "unknown"
	}
}

// CopyResult reports the outcome of a copy operation.
type CopyResult struct {
	BytesWritten int64
	Method       CopyMethod
}

// CopyFileParams describes what to copy. Both files must be open; Src for
// reading and Dst for writing, positioned at offset zero. Size is the
// number of bytes the source held when it was opened.
type CopyFileParams struct {
	Src  *os.File
	Dst  *os.File
	Size int64
}

// CheckCopyable rejects modes the byte-copy primitive cannot handle.
func CheckCopyable(mode os.FileMode) error {
	if mode.IsRegular() || mode&os.ModeSymlink != 0 {
		return nil
	}
	return ErrUnsupportedType
}
