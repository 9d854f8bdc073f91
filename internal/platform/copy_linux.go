//go:build linux

package platform

import (
	"golang.org/x/sys/unix"
)

// CopyFile tries the most efficient copy method available on Linux,
// falling through on unsupported/cross-device errors. A strategy that has
// already written bytes is never retried with another one.
func CopyFile(params CopyFileParams) (CopyResult, error) {
	preallocate(params.Dst, params.Size)

	result, err := copyFileRange(params)
	if err == nil || result.BytesWritten > 0 || !isFallbackErr(err) {
		return result, err
	}

	result, err = copySendfile(params)
	if err == nil || result.BytesWritten > 0 || !isFallbackErr(err) {
		return result, err
	}

	return CopyReadWrite(params)
}

func copyFileRange(params CopyFileParams) (CopyResult, error) {
	var roff, woff int64
	remaining := params.Size
	var total int64

	for remaining > 0 {
		n, err := unix.CopyFileRange(int(params.Src.Fd()), &roff, int(params.Dst.Fd()), &woff, int(remaining), 0)
		if err != nil {
			return CopyResult{BytesWritten: total, Method: CopyFileRange}, err
		}
		if n == 0 {
			break
		}
		remaining -= int64(n)
		total += int64(n)
	}

	return CopyResult{BytesWritten: total, Method: CopyFileRange}, checkShort(total, params.Size)
}

func copySendfile(params CopyFileParams) (CopyResult, error) {
	var offset int64
	remaining := params.Size
	var total int64

	for remaining > 0 {
		n, err := unix.Sendfile(int(params.Dst.Fd()), int(params.Src.Fd()), &offset, int(remaining))
		if err != nil {
			return CopyResult{BytesWritten: total, Method: Sendfile}, err
		}
		if n == 0 {
			break
		}
		remaining -= int64(n)
		total += int64(n)
	}

	return CopyResult{BytesWritten: total, Method: Sendfile}, checkShort(total, params.Size)
}
