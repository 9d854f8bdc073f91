//go:build unix && !linux

package platform

// CopyFile falls back to pread/pwrite where no kernel offload is wired.
func CopyFile(params CopyFileParams) (CopyResult, error) {
	preallocate(params.Dst, params.Size)
	return CopyReadWrite(params)
}
