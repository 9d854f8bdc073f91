package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/ninecopy/ninecopy/internal/event"
	"github.com/ninecopy/ninecopy/internal/stats"
)

// State is the lifecycle of one run.
type State int32

const (
	Idle      State = iota // not started
	Running                // workers dispatching items
	Draining               // nothing outstanding, workers exiting
	Completed              // all workers joined, no abort
	Aborted                // abort observed; in-flight items finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// pool is the shared state handed to every worker of a single run. Nothing
// in it is process-global, so runs are independent of each other.
type pool struct {
	ctx     context.Context //nolint:containedctx // only feeds the bandwidth limiter
	opts    Options
	queue   *workQueue
	errs    *aggregator
	stats   *stats.Collector
	events  chan<- event.Event
	limiter *rate.Limiter
	log     *slog.Logger
	visited sync.Map // DevIno -> first relative path, follow mode only
	state   atomic.Int32
}

func newPool(ctx context.Context, opts Options, collector *stats.Collector, events chan<- event.Event, log *slog.Logger) *pool {
	p := &pool{
		// Cancellation stops new work through the abort flag; it must not
		// interrupt a transfer waiting on the limiter.
		ctx:    context.WithoutCancel(ctx),
		opts:   opts,
		stats:  collector,
		events: events,
		log:    log,
	}
	p.queue = newWorkQueue(func() { p.transition(Running, Draining) })
	p.errs = newAggregator(opts.ContinueOnError, collector, p.queue.Close)
	if opts.BWLimit > 0 {
		p.limiter = NewBWLimiter(opts.BWLimit)
	}
	return p
}

func (p *pool) State() State { return State(p.state.Load()) }

func (p *pool) transition(from, to State) bool {
	return p.state.CompareAndSwap(int32(from), int32(to))
}

// run starts n workers and blocks until every one of them has exited.
func (p *pool) run(n int) State {
	p.transition(Idle, Running)

	var wg sync.WaitGroup
	for id := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(id)
		}()
	}
	wg.Wait()

	final := Completed
	if p.errs.Aborted() {
		final = Aborted
	}
	p.state.Store(int32(final))
	return final
}

// worker loops until nothing is outstanding or the abort flag is seen. An
// item already popped when the flag goes up is dropped, not dispatched; an
// item being processed is always finished.
func (p *pool) worker(id int) {
	for {
		if p.errs.Aborted() {
			return
		}
		item, ok := p.queue.Pop()
		if !ok {
			return
		}
		if p.errs.Aborted() {
			p.queue.Done()
			return
		}

		switch item.Kind {
		case DirTask:
			p.scanDir(id, item)
		case FileTask:
			p.copyFile(id, item)
		}
		p.queue.Done()
	}
}

// fail records an item failure and emits the matching event.
func (p *pool) fail(workerID int, item WorkItem, op Op, err error) {
	rec := &ItemError{Path: item.displayPath(), Op: op, Err: err}
	p.log.Debug("item failed", "path", rec.Path, "op", op.String(), "error", err, "worker", workerID)

	typ := event.FileFailed
	if item.Kind == DirTask {
		typ = event.DirFailed
	}
	event.Emit(p.events, event.Event{Type: typ, Path: rec.Path, Error: rec, WorkerID: workerID})

	p.errs.Report(rec)
}
