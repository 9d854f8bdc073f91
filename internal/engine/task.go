package engine

import "os"

// ItemKind tags a WorkItem.
type ItemKind int

const (
	DirTask ItemKind = iota + 1
	FileTask
)

func (k ItemKind) String() string {
	switch k {
	case DirTask:
		return "dir"
	case FileTask:
		return "file"
	default:
		return "unknown"
	}
}

// WorkItem is one unit of pool work. It is immutable once queued and is
// consumed by exactly one worker.
type WorkItem struct {
	SrcPath string
	DstPath string
	RelPath string // relative to the source root; "" for the root itself
	Size    int64  // as seen during traversal; files only
	Mode    os.FileMode
	Kind    ItemKind
}

// displayPath is the path used in logs, events and error records.
func (w WorkItem) displayPath() string {
	if w.RelPath == "" {
		return "."
	}
	return w.RelPath
}
