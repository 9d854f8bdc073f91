package engine

import (
	"fmt"

	"github.com/ninecopy/ninecopy/internal/event"
)

// VerifyError records a checksum mismatch between a source file and its copy.
type VerifyError struct {
	SrcHash string
	DstHash string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("checksum mismatch: source %.16s destination %.16s", e.SrcHash, e.DstHash)
}

// verify re-reads a freshly copied file on both sides and compares BLAKE3
// digests. Failures are recorded with OpVerify and reported as false.
func (p *pool) verify(workerID int, item WorkItem) bool {
	srcHash, err := HashFile(item.SrcPath)
	if err != nil {
		p.fail(workerID, item, OpVerify, err)
		return false
	}
	dstHash, err := HashFile(item.DstPath)
	if err != nil {
		p.fail(workerID, item, OpVerify, err)
		return false
	}
	if srcHash != dstHash {
		p.fail(workerID, item, OpVerify, &VerifyError{SrcHash: srcHash, DstHash: dstHash})
		return false
	}

	p.stats.AddFilesVerified(1)
	event.Emit(p.events, event.Event{Type: event.FileVerified, Path: item.RelPath, WorkerID: workerID})
	return true
}
