package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ninecopy/ninecopy/internal/event"
	"github.com/ninecopy/ninecopy/internal/stats"
)

// Config describes a copy run.
type Config struct {
	Src     string
	Dst     string
	Options Options

	// Stats receives the run's counters; a fresh collector is used when nil.
	Stats *stats.Collector
	// Events, when set, receives best-effort per-item notifications. Run
	// never closes it.
	Events chan<- event.Event
	// OnProgress is called by the progress reporter when Options.Progress
	// is set. When nil, snapshots are logged at info level.
	OnProgress func(stats.Snapshot)
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Result is the outcome of a copy run.
type Result struct {
	RunID string
	State State
	Stats stats.Snapshot
	// Errors holds every per-item failure, in the order reported.
	Errors []*ItemError
	// Err is set when the run aborted: a *ConfigError, the item failure
	// that stopped the run, or the context's error.
	Err error
}

// Partial reports a run that completed but recorded item failures.
func (r Result) Partial() bool {
	return r.State == Completed && len(r.Errors) > 0
}

// AllErrors joins the abort cause with every item failure.
func (r Result) AllErrors() error {
	errs := make([]error, 0, len(r.Errors)+1)
	var cause *ItemError
	if r.Err != nil && !errors.As(r.Err, &cause) {
		errs = append(errs, r.Err)
	}
	for _, e := range r.Errors {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

// Run copies the tree at cfg.Src into cfg.Dst, blocking until complete.
// Cancelling ctx behaves like an abort: workers finish the item in hand
// and start nothing new.
func Run(ctx context.Context, cfg Config) Result {
	runID := uuid.New().String()[:8]
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("run", runID)

	collector := cfg.Stats
	if collector == nil {
		collector = stats.NewCollector()
	}

	fatal := func(err error) Result {
		log.Error("copy not started", "error", err)
		return Result{RunID: runID, State: Aborted, Stats: collector.Snapshot(), Err: err}
	}

	if err := cfg.Options.Validate(); err != nil {
		return fatal(err)
	}
	srcInfo, err := checkPaths(cfg.Src, cfg.Dst)
	if err != nil {
		return fatal(err)
	}
	if err := context.Cause(ctx); err != nil {
		return fatal(err)
	}

	opts := cfg.Options
	opts.Symlinks, _ = ParseSymlinkMode(string(opts.Symlinks))
	threads := opts.Threads
	if threads == 0 {
		threads = runtime.NumCPU()
	}

	p := newPool(ctx, opts, collector, cfg.Events, log)
	stop := context.AfterFunc(ctx, func() {
		if p.errs.Abort(context.Cause(ctx)) {
			log.Warn("copy interrupted", "error", context.Cause(ctx))
		}
	})
	defer stop()

	if opts.Progress {
		done := make(chan struct{})
		reporterStopped := startReporter(done, opts.progressInterval(), collector, progressFunc(cfg.OnProgress, log))
		defer func() {
			close(done)
			<-reporterStopped
		}()
	}

	log.Info("starting copy", "src", cfg.Src, "dst", cfg.Dst, "threads", threads)
	event.Emit(cfg.Events, event.Event{Type: event.RunStarted, Path: cfg.Src})

	p.queue.Push(WorkItem{
		Kind:    DirTask,
		SrcPath: cfg.Src,
		DstPath: cfg.Dst,
		Mode:    srcInfo.Mode(),
	})
	state := p.run(threads)

	res := Result{
		RunID:  runID,
		State:  state,
		Stats:  collector.Snapshot(),
		Errors: p.errs.Records(),
	}
	if state == Aborted {
		res.Err = p.errs.Cause()
		event.Emit(cfg.Events, event.Event{Type: event.RunAborted, Error: res.Err})
		log.Error("copy aborted", "error", res.Err, "stats", res.Stats.String())
	} else {
		event.Emit(cfg.Events, event.Event{Type: event.RunFinished})
		log.Info("copy finished", "stats", res.Stats.String(), "errors", len(res.Errors))
	}
	return res
}

// checkPaths validates the source and destination before anything is
// created. Copying a single file gains nothing from the pool, and a
// destination inside the source would be traversed as it is written.
func checkPaths(src, dst string) (os.FileInfo, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, &ConfigError{Msg: "source not found", Err: err}
	}
	if !info.IsDir() {
		return nil, &ConfigError{Msg: fmt.Sprintf("source %s is not a directory; use cp for single files", src)}
	}

	absSrc, err := filepath.Abs(src)
	if err != nil {
		return nil, &ConfigError{Msg: "resolve source", Err: err}
	}
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return nil, &ConfigError{Msg: "resolve destination", Err: err}
	}
	rel, err := filepath.Rel(absSrc, absDst)
	if err == nil && (rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))) {
		return nil, &ConfigError{Msg: fmt.Sprintf("destination %s is inside source %s", dst, src)}
	}
	return info, nil
}

func progressFunc(fn func(stats.Snapshot), log *slog.Logger) func(stats.Snapshot) {
	if fn != nil {
		return fn
	}
	return func(s stats.Snapshot) {
		log.Info("progress",
			"copied", s.FilesCopied,
			"found", s.FilesFound,
			"bytes", stats.FormatBytes(s.BytesCopied),
			"skipped", s.FilesSkipped,
			"errors", s.Errors,
			"dirs", s.DirsScanned,
		)
	}
}

// startReporter runs the periodic progress reporter until done is closed.
// It only reads counters and never touches the filesystem. The returned
// channel closes once the reporter has exited.
func startReporter(done <-chan struct{}, interval time.Duration, c *stats.Collector, report func(stats.Snapshot)) <-chan struct{} {
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				c.Tick()
				report(c.Snapshot())
			}
		}
	}()
	return stopped
}
