package ui

import "github.com/ninecopy/ninecopy/internal/event"

// Event is re-exported so presenters read naturally.
type Event = event.Event

// Event types the presenters switch on.
const (
	DirFailed    = event.DirFailed
	FileCopied   = event.FileCopied
	FileSkipped  = event.FileSkipped
	FileFailed   = event.FileFailed
	FileVerified = event.FileVerified
)
