package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ninecopy/ninecopy/internal/event"
)

// scanDir is the traversal role: mirror one directory at the destination,
// then queue each of its children. Children are only queued after the
// destination directory exists, so every FileTask finds its parent.
func (p *pool) scanDir(workerID int, item WorkItem) {
	if p.opts.followLinks() && !p.firstVisit(item) {
		return
	}

	if err := makeDestDir(item); err != nil {
		op := OpTraversal
		if errors.Is(err, ErrNotDirectory) {
			op = OpConflict
		}
		p.fail(workerID, item, op, err)
		return
	}

	entries, err := os.ReadDir(item.SrcPath)
	if err != nil {
		// ReadDir hands back whatever it read before failing; those
		// entries are still queued below.
		p.fail(workerID, item, OpTraversal, fmt.Errorf("readdir: %w", err))
	} else {
		p.stats.AddDirsScanned(1)
		event.Emit(p.events, event.Event{Type: event.DirScanned, Path: item.displayPath(), Size: int64(len(entries)), WorkerID: workerID})
	}

	for _, entry := range entries {
		child, ok := p.classify(workerID, item, entry)
		if !ok {
			continue
		}
		if !p.queue.Push(child) {
			return // closed by an abort
		}
		if child.Kind == FileTask {
			p.stats.AddFilesFound(1)
			p.stats.AddBytesFound(child.Size)
		}
	}
}

// classify turns a directory entry into a work item. It reports false for
// entries that are filtered out or cannot be typed.
func (p *pool) classify(workerID int, parent WorkItem, entry fs.DirEntry) (WorkItem, bool) {
	child := WorkItem{
		SrcPath: filepath.Join(parent.SrcPath, entry.Name()),
		DstPath: filepath.Join(parent.DstPath, entry.Name()),
		RelPath: filepath.Join(parent.RelPath, entry.Name()),
		Kind:    FileTask,
	}

	info, err := entry.Info()
	if p.opts.followLinks() && entry.Type()&fs.ModeSymlink != 0 {
		info, err = os.Stat(child.SrcPath)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && entry.Type()&fs.ModeSymlink == 0 {
			// Vanished between readdir and stat. Nothing left to copy.
			p.log.Debug("entry vanished during scan", "path", child.RelPath)
			return child, false
		}
		p.fail(workerID, child, OpTraversal, fmt.Errorf("stat: %w", err))
		return child, false
	}

	child.Mode = info.Mode()
	if info.IsDir() {
		child.Kind = DirTask
	} else {
		child.Size = info.Size()
	}

	if !p.opts.Filter.Match(child.RelPath, child.Kind == DirTask) {
		p.log.Debug("filtered", "path", child.RelPath)
		return child, false
	}
	return child, true
}

// firstVisit guards against directory cycles when links are followed.
func (p *pool) firstVisit(item WorkItem) bool {
	info, err := os.Stat(item.SrcPath)
	if err != nil {
		return true // let ReadDir report it
	}
	key, ok := devInoOf(info)
	if !ok {
		return true
	}
	if first, seen := p.visited.LoadOrStore(key, item.displayPath()); seen {
		p.log.Warn("directory already copied, not following link again",
			"path", item.displayPath(), "first", first)
		return false
	}
	return true
}

// makeDestDir creates the mirrored directory. An existing directory is
// fine; anything else in its place is a conflict. Below the root a link to a
// directory is refused so nothing is written outside the destination tree.
func makeDestDir(item WorkItem) error {
	if item.RelPath == "" {
		if err := os.MkdirAll(filepath.Dir(item.DstPath), 0o755); err != nil {
			return fmt.Errorf("create destination parent: %w", err)
		}
	}

	// Owner rwx is forced so the tree can be filled in even when the source
	// directory is read-only.
	err := os.Mkdir(item.DstPath, item.Mode.Perm()|0o700)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("mkdir: %w", err)
	}

	stat := os.Lstat
	if item.RelPath == "" {
		stat = os.Stat
	}
	info, statErr := stat(item.DstPath)
	if statErr == nil && info.IsDir() {
		return nil
	}
	return fmt.Errorf("%s: %w", item.DstPath, ErrNotDirectory)
}
