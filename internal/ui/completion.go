package ui

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/ninecopy/ninecopy/internal/stats"
)

// CompletionSummary builds a final summary line from a snapshot.
// Format: done ✓  copied 48,917 (2.1 GiB)  skipped 0 (0 B)  avg 641 MiB/s  time 3m 17s  errors 0
func CompletionSummary(snap stats.Snapshot) string {
	avgSpeed := 0.0
	if snap.Elapsed.Seconds() > 0 {
		avgSpeed = float64(snap.BytesCopied) / snap.Elapsed.Seconds()
	}

	icon := "✓"
	if snap.Errors > 0 {
		icon = "✗"
	}

	base := fmt.Sprintf("done %s  copied %s (%s)  skipped %s (%s)  avg %s  time %s",
		icon,
		FormatCount(snap.FilesCopied), FormatBytes(snap.BytesCopied),
		FormatCount(snap.FilesSkipped), FormatBytes(snap.BytesSkipped),
		FormatRate(avgSpeed),
		FormatDuration(snap.Elapsed),
	)

	if snap.FilesVerified > 0 {
		base += fmt.Sprintf("  verified %s", FormatCount(snap.FilesVerified))
	}

	base += fmt.Sprintf("  errors %d", snap.Errors)

	return base
}

// FormatFailure renders one per-path failure for the final error list.
func FormatFailure(err error, useColor bool) string {
	return paint(useColor, color.FgRed, "error: ") + err.Error()
}
