package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ninecopy/ninecopy/internal/stats"
)

// ErrConflict is the cause recorded when a destination file exists and the
// policy allows neither replacing nor skipping it.
var ErrConflict = errors.New("destination already exists")

// ErrNotDirectory is returned when the destination of a directory is
// occupied by something else.
var ErrNotDirectory = errors.New("destination exists and is not a directory")

// Op classifies the step at which an item failed.
type Op int

const (
	OpTraversal Op = iota + 1
	OpConflict
	OpCopy
	OpVerify
)

func (o Op) String() string {
	switch o {
	case OpTraversal:
		return "traversal"
	case OpConflict:
		return "conflict"
	case OpCopy:
		return "copy"
	case OpVerify:
		return "verify"
	default:
		return "unknown"
	}
}

// ItemError records one failed item. Records are append-only.
type ItemError struct {
	Err  error
	Path string // relative to the source root
	Op   Op
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// aggregator collects item failures from every worker and owns the abort
// flag. The flag flips false to true at most once per run.
type aggregator struct {
	mu              sync.Mutex
	records         []*ItemError
	cause           error
	aborted         atomic.Bool
	continueOnError bool
	onAbort         func()
	stats           stats.Writer
}

func newAggregator(continueOnError bool, w stats.Writer, onAbort func()) *aggregator {
	return &aggregator{continueOnError: continueOnError, stats: w, onAbort: onAbort}
}

// Report appends a failure and, unless the run continues on error, aborts.
func (a *aggregator) Report(e *ItemError) {
	a.mu.Lock()
	a.records = append(a.records, e)
	a.mu.Unlock()
	a.stats.AddErrors(1)

	if !a.continueOnError {
		a.Abort(e)
	}
}

// Abort sets the abort flag. Only the first call records its cause and
// runs the abort hook; it reports whether this call was that first one.
func (a *aggregator) Abort(cause error) bool {
	if !a.aborted.CompareAndSwap(false, true) {
		return false
	}
	a.mu.Lock()
	a.cause = cause
	a.mu.Unlock()
	if a.onAbort != nil {
		a.onAbort()
	}
	return true
}

// Aborted reports whether the abort flag is set.
func (a *aggregator) Aborted() bool {
	return a.aborted.Load()
}

// Cause returns what triggered the abort, or nil.
func (a *aggregator) Cause() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cause
}

// Records returns a copy of everything reported so far.
func (a *aggregator) Records() []*ItemError {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*ItemError(nil), a.records...)
}
