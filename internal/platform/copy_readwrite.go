//go:build unix

package platform

import (
	"errors"
	"io"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

const bufferSize = 1 << 20 // 1 MiB

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, bufferSize)
		return &b
	},
}

// GetBuffer borrows a copy buffer from the shared pool.
func GetBuffer() *[]byte { return bufPool.Get().(*[]byte) } //nolint:forcetypeassert // pool only holds *[]byte

// PutBuffer returns a buffer obtained from GetBuffer.
func PutBuffer(b *[]byte) { bufPool.Put(b) }

// CopyReadWrite copies data using pread/pwrite with a pooled buffer.
func CopyReadWrite(params CopyFileParams) (CopyResult, error) {
	bufp := GetBuffer()
	defer PutBuffer(bufp)
	buf := *bufp

	var offset int64
	remaining := params.Size
	srcRawFd := int(params.Src.Fd())
	dstRawFd := int(params.Dst.Fd())

	for remaining > 0 {
		toRead := int(min(remaining, int64(bufferSize)))

		n, err := unix.Pread(srcRawFd, buf[:toRead], offset)
		if err != nil {
			return CopyResult{BytesWritten: offset, Method: ReadWrite}, err
		}
		if n == 0 {
			break
		}

		written := 0
		for written < n {
			w, err := unix.Pwrite(dstRawFd, buf[written:n], offset+int64(written))
			if err != nil {
				return CopyResult{BytesWritten: offset + int64(written), Method: ReadWrite}, err
			}
			written += w
		}

		offset += int64(n)
		remaining -= int64(n)
	}

	return CopyResult{BytesWritten: offset, Method: ReadWrite}, checkShort(offset, params.Size)
}

// CopyStream copies from r into dst with a pooled buffer. It is used when
// the source must pass through a wrapper (rate limiting) and kernel
// offload is therefore not possible.
func CopyStream(dst io.Writer, r io.Reader, size int64) (CopyResult, error) {
	bufp := GetBuffer()
	defer PutBuffer(bufp)

	n, err := io.CopyBuffer(dst, io.LimitReader(r, size), *bufp)
	if err != nil {
		return CopyResult{BytesWritten: n, Method: Stream}, err
	}
	return CopyResult{BytesWritten: n, Method: Stream}, checkShort(n, size)
}

// checkShort reports a source that shrank while it was being copied.
func checkShort(written, want int64) error {
	if written < want {
		return io.ErrUnexpectedEOF
	}
	return nil
}

// isFallbackErr returns true if err should trigger a fallback to the next copy strategy.
func isFallbackErr(err error) bool {
	for _, errno := range []error{unix.ENOSYS, unix.EXDEV, unix.EINVAL, unix.ENOTSUP, unix.EOPNOTSUPP} {
		if errors.Is(err, errno) {
			return true
		}
	}
	var pe *os.PathError
	if errors.As(err, &pe) {
		return isFallbackErr(pe.Err)
	}
	return false
}
