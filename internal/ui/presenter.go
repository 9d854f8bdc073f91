package ui

import (
	"io"

	"github.com/ninecopy/ninecopy/internal/stats"
)

// Presenter consumes events and displays progress.
type Presenter interface {
	// Run consumes events until the channel closes. Blocks until done.
	Run(events <-chan Event) error
	// Progress renders one periodic progress line. It is called from the
	// engine's reporter goroutine, never from a copy worker.
	Progress(snap stats.Snapshot)
	// Summary returns the final summary line.
	Summary() string
}

// Config configures a Presenter.
type Config struct {
	Writer    io.Writer
	ErrWriter io.Writer
	Stats     stats.Reader
	Quiet     bool
	Verbose   bool
	Color     bool
}

// NewPresenter creates the appropriate presenter based on configuration.
//
//nolint:ireturn // factory function returns interface by design
func NewPresenter(cfg Config) Presenter {
	if cfg.Quiet {
		return &quietPresenter{}
	}
	return &plainPresenter{
		w:       cfg.Writer,
		errW:    cfg.ErrWriter,
		stats:   cfg.Stats,
		verbose: cfg.Verbose,
		color:   cfg.Color,
	}
}
