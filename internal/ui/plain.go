package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ninecopy/ninecopy/internal/stats"
)

// plainPresenter writes line-oriented output: per-item lines to w in
// verbose mode, progress lines to errW.
type plainPresenter struct {
	w       io.Writer
	errW    io.Writer
	stats   stats.Reader
	verbose bool
	color   bool
}

func (p *plainPresenter) Run(events <-chan Event) error {
	for ev := range events {
		p.handleEvent(ev)
	}
	return nil
}

func (p *plainPresenter) handleEvent(ev Event) {
	if !p.verbose {
		return
	}
	switch ev.Type {
	case FileCopied:
		fmt.Fprintf(p.w, "%s  %s\n", ev.Path, FormatBytes(ev.Size))
	case FileSkipped:
		fmt.Fprintf(p.w, "%s  %s\n", ev.Path, paint(p.color, color.FgYellow, "skipped"))
	case FileFailed, DirFailed:
		fmt.Fprintf(p.w, "%s  %s\n", ev.Path, paint(p.color, color.FgRed, "failed"))
	case FileVerified:
		fmt.Fprintf(p.w, "%s  %s\n", ev.Path, paint(p.color, color.FgGreen, "verified"))
	}
}

func (p *plainPresenter) Progress(snap stats.Snapshot) {
	fmt.Fprintln(p.errW, ProgressLine(snap, p.stats.RollingSpeed(3)))
}

func (p *plainPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}
