package engine

import (
	"io/fs"
	"time"
)

// Decision is the outcome of evaluating the conflict policy for one file.
type Decision int

const (
	Copy Decision = iota
	Skip
	Conflict
)

func (d Decision) String() string {
	switch d {
	case Copy:
		return "copy"
	case Skip:
		return "skip"
	case Conflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// FileMeta is the subset of file metadata the policy looks at.
type FileMeta struct {
	ModTime time.Time
	Size    int64
	Exists  bool
	IsDir   bool
	IsLink  bool
}

// metaFromInfo converts a stat result; a nil info means "does not exist".
func metaFromInfo(info fs.FileInfo) FileMeta {
	if info == nil {
		return FileMeta{}
	}
	return FileMeta{
		ModTime: info.ModTime(),
		Size:    info.Size(),
		Exists:  true,
		IsDir:   info.IsDir(),
		IsLink:  info.Mode()&fs.ModeSymlink != 0,
	}
}

// Evaluate decides what to do with src given the current state of its
// destination. It has no side effects and is safe for concurrent use.
//
// A file is never written over a directory: with skip the directory is left
// alone, otherwise it is a Conflict.
func Evaluate(src, dst FileMeta, opts Options) Decision {
	if !dst.Exists {
		return Copy
	}

	switch {
	case opts.Overwrite:
		if dst.IsDir {
			return Conflict
		}
		return Copy
	case opts.Skip:
		if dst.IsDir {
			return Skip
		}
		if opts.CopyIfNewer && src.ModTime.After(dst.ModTime) {
			return Copy
		}
		if opts.CopyIfLarger && src.Size > dst.Size {
			return Copy
		}
		return Skip
	default:
		return Conflict
	}
}
