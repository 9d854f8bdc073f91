package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ninecopy/ninecopy/internal/event"
	"github.com/ninecopy/ninecopy/internal/platform"
)

// copyFile is the copy role: evaluate the policy against the destination
// as it is right now, then copy, skip, or record a conflict.
func (p *pool) copyFile(workerID int, item WorkItem) {
	srcInfo, err := p.statSource(item.SrcPath)
	if err != nil {
		p.fail(workerID, item, OpCopy, fmt.Errorf("stat source: %w", err))
		return
	}
	if err := platform.CheckCopyable(srcInfo.Mode()); err != nil {
		p.fail(workerID, item, OpCopy, fmt.Errorf("%s: %w", srcInfo.Mode().Type(), err))
		return
	}

	dstInfo, err := os.Lstat(item.DstPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		p.fail(workerID, item, OpCopy, fmt.Errorf("stat destination: %w", err))
		return
	}
	dst := metaFromInfo(dstInfo)

	switch Evaluate(metaFromInfo(srcInfo), dst, p.opts) {
	case Skip:
		p.stats.AddFilesSkipped(1)
		p.stats.AddBytesSkipped(srcInfo.Size())
		event.Emit(p.events, event.Event{Type: event.FileSkipped, Path: item.RelPath, Size: srcInfo.Size(), WorkerID: workerID})
		return
	case Conflict:
		p.fail(workerID, item, OpConflict, ErrConflict)
		return
	case Copy:
	}

	var n int64
	if srcInfo.Mode()&os.ModeSymlink != 0 {
		err = copySymlink(item, srcInfo, dst)
	} else {
		n, err = p.copyRegular(item, dst)
	}
	if err != nil {
		// Partial destination files are left in place.
		p.fail(workerID, item, OpCopy, err)
		return
	}

	// A file that fails verification counts as failed, not copied.
	if p.opts.Verify && srcInfo.Mode().IsRegular() && !p.verify(workerID, item) {
		return
	}

	p.stats.AddFilesCopied(1)
	p.stats.AddBytesCopied(n)
	event.Emit(p.events, event.Event{Type: event.FileCopied, Path: item.RelPath, Size: n, WorkerID: workerID})
	p.log.Debug("copied", "path", item.RelPath, "bytes", n, "worker", workerID)
}

func (p *pool) statSource(path string) (fs.FileInfo, error) {
	if p.opts.followLinks() {
		return os.Stat(path)
	}
	return os.Lstat(path)
}

// copyRegular transfers the file contents, then applies the source's
// permission bits and mtime. Size and metadata come from the descriptor
// that was actually read, not from traversal.
func (p *pool) copyRegular(item WorkItem, dst FileMeta) (int64, error) {
	src, err := os.Open(item.SrcPath)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}

	// Never write through a link sitting where the file belongs.
	if dst.IsLink {
		if err := os.Remove(item.DstPath); err != nil {
			return 0, fmt.Errorf("remove destination link: %w", err)
		}
	}

	out, err := os.OpenFile(item.DstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, fmt.Errorf("create destination: %w", err)
	}

	params := platform.CopyFileParams{Src: src, Dst: out, Size: info.Size()}
	var result platform.CopyResult
	if p.limiter != nil {
		result, err = platform.CopyStream(out, newRateLimitedReader(p.ctx, src, p.limiter), info.Size())
	} else {
		result, err = platform.CopyFile(params)
	}
	if err != nil {
		out.Close()
		return result.BytesWritten, fmt.Errorf("copy data (%s): %w", result.Method, err)
	}

	if err := platform.SetFileMetadata(out, info.Mode(), info.ModTime()); err != nil {
		out.Close()
		return result.BytesWritten, fmt.Errorf("set metadata: %w", err)
	}
	if err := out.Close(); err != nil {
		return result.BytesWritten, fmt.Errorf("close destination: %w", err)
	}
	return result.BytesWritten, nil
}

// copySymlink recreates a link with the same target text.
func copySymlink(item WorkItem, srcInfo fs.FileInfo, dst FileMeta) error {
	target, err := os.Readlink(item.SrcPath)
	if err != nil {
		return fmt.Errorf("readlink: %w", err)
	}
	if dst.Exists {
		if err := os.Remove(item.DstPath); err != nil {
			return fmt.Errorf("remove destination: %w", err)
		}
	}
	if err := os.Symlink(target, item.DstPath); err != nil {
		return fmt.Errorf("symlink -> %s: %w", target, err)
	}
	return platform.SetLinkTimes(item.DstPath, srcInfo.ModTime())
}
