package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/ninecopy/ninecopy/internal/config"
	"github.com/ninecopy/ninecopy/internal/engine"
	"github.com/ninecopy/ninecopy/internal/event"
	"github.com/ninecopy/ninecopy/internal/filter"
	"github.com/ninecopy/ninecopy/internal/stats"
	"github.com/ninecopy/ninecopy/internal/ui"
)

var version = "dev"

// Exit codes.
const (
	exitOK      = 0
	exitPartial = 1 // completed, some items failed under --continue-on-error
	exitFailed  = 2 // aborted, bad configuration, or usage error
)

func main() {
	os.Exit(run())
}

func run() int {
	return execute(os.Args[1:], os.Stdout, os.Stderr)
}

// filterFlag is a custom pflag.Value that preserves CLI ordering of
// --exclude and --include rules by appending to a shared filter.Chain.
type filterFlag struct {
	chain   *filter.Chain
	include bool
}

func (*filterFlag) String() string { return "" }
func (*filterFlag) Type() string   { return "pattern" }

func (f *filterFlag) Set(val string) error {
	if f.include {
		return f.chain.AddInclude(val)
	}
	return f.chain.AddExclude(val)
}

// cliFlags holds every flag value of the root command.
type cliFlags struct {
	overwrite        bool
	skip             bool
	copyIfNewer      bool
	copyIfLarger     bool
	continueOnError  bool
	progress         bool
	verify           bool
	verbose          bool
	quiet            bool
	showVersion      bool
	threads          int
	progressInterval time.Duration
	symlinks         string
	bwLimit          string
	filterFile       string
	logFile          string
	colorMode        string
}

func execute(args []string, stdout, stderr io.Writer) int {
	var f cliFlags
	chain := filter.NewChain()

	rootCmd := &cobra.Command{
		Use:   "ninecopy [OPTIONS] <SOURCE> <DESTINATION>",
		Short: "Copy a directory tree in parallel",
		Long: `ninecopy copies every file and directory under SOURCE into DESTINATION
using a pool of worker threads that share traversal and copy work.

Existing destination files are an error unless --overwrite or --skip is
given. Under --skip, --copy-if-newer and --copy-if-larger copy anyway when
the source is more recent or bigger.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if f.showVersion {
				return nil
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.showVersion {
				fmt.Fprintf(stdout, "ninecopy %s\n", version)
				return nil
			}
			return runCopy(cmd, args[0], args[1], &f, chain, stdout, stderr)
		},
	}
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	flags := rootCmd.Flags()
	flags.BoolVarP(&f.showVersion, "version", "V", false, "print version and exit")
	flags.BoolVarP(&f.overwrite, "overwrite", "o", false, "replace existing destination files")
	flags.BoolVarP(&f.skip, "skip", "s", false, "leave existing destination files untouched")
	flags.BoolVar(&f.copyIfNewer, "copy-if-newer", false, "with --skip, copy when the source is more recent")
	flags.BoolVar(&f.copyIfLarger, "copy-if-larger", false, "with --skip, copy when the source is bigger")
	flags.BoolVarP(&f.progress, "progress", "p", false, "print periodic progress")
	flags.DurationVar(&f.progressInterval, "progress-interval", engine.DefaultProgressInterval, "time between progress lines")
	flags.IntVarP(&f.threads, "threads", "t", 0, "number of worker threads (default: number of CPUs)")
	flags.BoolVarP(&f.continueOnError, "continue-on-error", "c", false, "keep going after a file or directory fails")
	flags.StringVar(&f.symlinks, "symlinks", string(engine.SymlinksPreserve), "symlink handling: preserve or follow")
	flags.Var(&filterFlag{chain: chain, include: false}, "exclude", "exclude files matching PATTERN (repeatable)")
	flags.Var(&filterFlag{chain: chain, include: true}, "include", "include files matching PATTERN (repeatable)")
	flags.StringVar(&f.filterFile, "filter", "", "read filter rules from FILE")
	flags.StringVar(&f.bwLimit, "bwlimit", "", "bandwidth limit per second (e.g. 100MB, 1GiB)")
	flags.BoolVar(&f.verify, "verify", false, "verify checksums after copy (BLAKE3)")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "print every file and debug logs")
	flags.BoolVarP(&f.quiet, "quiet", "q", false, "suppress all output except errors")
	flags.StringVar(&f.logFile, "log", "", "write structured JSON log to FILE")
	flags.StringVar(&f.colorMode, "color", "auto", "color output: auto, always or never")

	rootCmd.AddCommand(newDocsCmd())

	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}
	return exitOK
}

//nolint:gocyclo // CLI entry point wires every flag into the run
func runCopy(cmd *cobra.Command, src, dst string, f *cliFlags, chain *filter.Chain, stdout, stderr io.Writer) error {
	// Load optional config file.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := applyConfigDefaults(cmd.Flags(), cfg, f, chain); err != nil {
		return err
	}

	// Validate everything before the log file is created.
	if f.filterFile != "" {
		if err := chain.LoadFile(f.filterFile); err != nil {
			return fmt.Errorf("load filter file: %w", err)
		}
	}

	opts, err := buildOptions(f)
	if err != nil {
		return err
	}
	if !chain.Empty() {
		opts.Filter = chain
	}

	useColor, err := ui.UseColor(f.colorMode, fdOf(stderr))
	if err != nil {
		return err
	}

	// Configure logging.
	logLevel := slog.LevelWarn
	if f.verbose {
		logLevel = slog.LevelDebug
	} else if !f.quiet {
		logLevel = slog.LevelInfo
	}
	var logHandler slog.Handler = slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel})
	if f.logFile != "" {
		lf, err := os.Create(f.logFile)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer lf.Close()
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{Level: slog.LevelDebug})
		logHandler = ui.NewMultiHandler(logHandler, jsonHandler)
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	// Set up context with signal handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := stats.NewCollector()
	presenter := ui.NewPresenter(ui.Config{
		Writer:    stdout,
		ErrWriter: stderr,
		Stats:     collector,
		Quiet:     f.quiet,
		Verbose:   f.verbose,
		Color:     useColor,
	})

	events := make(chan event.Event, 256)
	presenterEvents := (<-chan event.Event)(events)
	if f.logFile != "" {
		presenterEvents = teeEvents(events, logger)
	}

	var g errgroup.Group
	g.Go(func() error { return presenter.Run(presenterEvents) })

	result := engine.Run(ctx, engine.Config{
		Src:        src,
		Dst:        dst,
		Options:    opts,
		Stats:      collector,
		Events:     events,
		OnProgress: presenter.Progress,
		Logger:     logger,
	})
	stop()
	close(events)
	if err := g.Wait(); err != nil {
		fmt.Fprintf(stderr, "presenter: %v\n", err)
	}

	for _, e := range result.Errors {
		fmt.Fprintln(stderr, ui.FormatFailure(e, useColor))
	}
	if summary := presenter.Summary(); summary != "" {
		fmt.Fprintln(stderr, summary)
	}

	switch {
	case result.Err != nil:
		return &exitError{code: exitFailed}
	case result.Partial():
		return &exitError{code: exitPartial}
	}
	return nil
}

// buildOptions turns flag values into validated engine options.
func buildOptions(f *cliFlags) (engine.Options, error) {
	mode, err := engine.ParseSymlinkMode(f.symlinks)
	if err != nil {
		return engine.Options{}, err
	}

	var bwLimit int64
	if f.bwLimit != "" {
		n, err := humanize.ParseBytes(f.bwLimit)
		if err != nil {
			return engine.Options{}, fmt.Errorf("invalid --bwlimit: %w", err)
		}
		bwLimit = int64(n) //nolint:gosec // G115: a byte rate never approaches 2^63
	}

	opts := engine.Options{
		Overwrite:        f.overwrite,
		Skip:             f.skip,
		CopyIfNewer:      f.copyIfNewer,
		CopyIfLarger:     f.copyIfLarger,
		ContinueOnError:  f.continueOnError,
		Progress:         f.progress,
		Verify:           f.verify,
		Threads:          f.threads,
		ProgressInterval: f.progressInterval,
		BWLimit:          bwLimit,
		Symlinks:         mode,
	}
	return opts, opts.Validate()
}

// applyConfigDefaults applies config file defaults for flags not explicitly
// set on the CLI. Config excludes are appended after CLI rules so the
// command line wins on first match.
func applyConfigDefaults(flags *pflag.FlagSet, cfg config.Config, f *cliFlags, chain *filter.Chain) error {
	d := cfg.Defaults
	setBool := func(name string, dst *bool, v *bool) {
		if !flags.Changed(name) && v != nil {
			*dst = *v
		}
	}
	// A conflict policy chosen on the command line replaces the opposing
	// policy from the config file instead of colliding with it.
	cliOverwrite := flags.Changed("overwrite")
	cliSkip := flags.Changed("skip") || flags.Changed("copy-if-newer") || flags.Changed("copy-if-larger")
	if !cliSkip {
		setBool("overwrite", &f.overwrite, d.Overwrite)
	}
	if !cliOverwrite {
		setBool("skip", &f.skip, d.Skip)
		setBool("copy-if-newer", &f.copyIfNewer, d.CopyIfNewer)
		setBool("copy-if-larger", &f.copyIfLarger, d.CopyIfLarger)
	}
	setBool("continue-on-error", &f.continueOnError, d.ContinueOnError)
	setBool("progress", &f.progress, d.Progress)
	setBool("verify", &f.verify, d.Verify)

	if !flags.Changed("threads") && d.Threads != nil {
		f.threads = *d.Threads
	}
	if !flags.Changed("progress-interval") && d.ProgressInterval != nil {
		f.progressInterval = d.ProgressInterval.Duration
	}
	if !flags.Changed("bwlimit") && d.BWLimit != nil {
		f.bwLimit = *d.BWLimit
	}
	if !flags.Changed("symlinks") && d.Symlinks != nil {
		f.symlinks = *d.Symlinks
	}
	if !flags.Changed("color") && cfg.UI.Color != nil {
		f.colorMode = *cfg.UI.Color
	}

	for _, pattern := range d.Exclude {
		if err := chain.AddExclude(pattern); err != nil {
			return fmt.Errorf("config exclude: %w", err)
		}
	}
	return nil
}

// teeEvents writes each event to the structured log before forwarding it.
func teeEvents(events <-chan event.Event, logger *slog.Logger) <-chan event.Event {
	teed := make(chan event.Event, cap(events))
	go func() {
		defer close(teed)
		for ev := range events {
			attrs := []slog.Attr{
				slog.String("type", ev.Type.String()),
				slog.String("path", ev.Path),
				slog.Int64("size", ev.Size),
				slog.Int("worker", ev.WorkerID),
			}
			if ev.Error != nil {
				attrs = append(attrs, slog.String("error", ev.Error.Error()))
			}
			logger.LogAttrs(context.Background(), slog.LevelDebug, "ninecopy.event", attrs...)
			teed <- ev
		}
	}()
	return teed
}

// fdOf returns w's descriptor when it is a file, for TTY detection.
func fdOf(w io.Writer) uintptr {
	if file, ok := w.(*os.File); ok {
		return file.Fd()
	}
	return ^uintptr(0)
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
