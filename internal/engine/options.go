package engine

import (
	"fmt"
	"time"

	"github.com/ninecopy/ninecopy/internal/filter"
)

// DefaultProgressInterval is how often the progress reporter fires when
// Options.ProgressInterval is unset.
const DefaultProgressInterval = 5 * time.Second

// SymlinkMode selects how symbolic links found in the source are handled.
type SymlinkMode string

const (
	// SymlinksPreserve recreates each link at the destination, pointing at
	// the same target text. Links are never followed.
	SymlinksPreserve SymlinkMode = "preserve"
	// SymlinksFollow copies whatever a link points to. Directory cycles
	// are detected and each directory is copied at most once.
	SymlinksFollow SymlinkMode = "follow"
)

// ParseSymlinkMode parses a mode name; the empty string means preserve.
func ParseSymlinkMode(s string) (SymlinkMode, error) {
	switch SymlinkMode(s) {
	case "", SymlinksPreserve:
		return SymlinksPreserve, nil
	case SymlinksFollow:
		return SymlinksFollow, nil
	default:
		return "", &ConfigError{Msg: fmt.Sprintf("unknown symlink mode %q (want %q or %q)", s, SymlinksPreserve, SymlinksFollow)}
	}
}

// Options is the copy policy for one run. It is fixed before the pool
// starts and never mutated afterwards.
type Options struct {
	Overwrite       bool
	Skip            bool
	CopyIfNewer     bool
	CopyIfLarger    bool
	ContinueOnError bool
	Progress        bool
	Verify          bool

	// Threads is the pool size; zero means one per available CPU.
	Threads int
	// ProgressInterval is the reporter cadence; zero means DefaultProgressInterval.
	ProgressInterval time.Duration
	// BWLimit caps aggregate read throughput in bytes per second; zero disables.
	BWLimit  int64
	Symlinks SymlinkMode
	// Filter drops matching source entries before they are queued.
	Filter *filter.Chain
}

// ConfigError reports an ill-defined copy policy. It is always fatal and
// is raised before any filesystem side effect.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid configuration: %s: %v", e.Msg, e.Err)
	}
	return "invalid configuration: " + e.Msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Validate rejects mutually exclusive or dependent options used wrongly.
func (o Options) Validate() error {
	if o.Overwrite && o.Skip {
		return &ConfigError{Msg: "--overwrite and --skip are mutually exclusive"}
	}
	if o.CopyIfNewer && !o.Skip {
		return &ConfigError{Msg: "--copy-if-newer requires --skip"}
	}
	if o.CopyIfLarger && !o.Skip {
		return &ConfigError{Msg: "--copy-if-larger requires --skip"}
	}
	if o.Threads < 0 {
		return &ConfigError{Msg: fmt.Sprintf("thread count must be positive, got %d", o.Threads)}
	}
	if o.BWLimit < 0 {
		return &ConfigError{Msg: fmt.Sprintf("bandwidth limit must not be negative, got %d", o.BWLimit)}
	}
	if o.ProgressInterval < 0 {
		return &ConfigError{Msg: "progress interval must not be negative"}
	}
	if _, err := ParseSymlinkMode(string(o.Symlinks)); err != nil {
		return err
	}
	return nil
}

func (o Options) progressInterval() time.Duration {
	if o.ProgressInterval > 0 {
		return o.ProgressInterval
	}
	return DefaultProgressInterval
}

func (o Options) followLinks() bool {
	return o.Symlinks == SymlinksFollow
}
