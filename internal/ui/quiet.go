package ui

import "github.com/ninecopy/ninecopy/internal/stats"

// quietPresenter consumes events but produces no output. Failures are
// still printed by the caller from the run result.
type quietPresenter struct{}

func (p *quietPresenter) Run(events <-chan Event) error {
	for range events {
	}
	return nil
}

func (p *quietPresenter) Progress(stats.Snapshot) {}

func (p *quietPresenter) Summary() string {
	return ""
}
