package ui

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ninecopy/ninecopy/internal/stats"
)

// FormatRate formats a bytes-per-second rate as a human-readable string.
func FormatRate(bytesPerSec float64) string {
	if bytesPerSec <= 0 {
		return "0 B/s"
	}
	return humanize.IBytes(uint64(bytesPerSec)) + "/s"
}

// FormatETA formats a duration as a human-readable ETA string.
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return "--"
	}
	return FormatDuration(d)
}

// FormatCount formats an integer with comma separators.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// FormatBytes wraps stats.FormatBytes for UI use.
func FormatBytes(b int64) string {
	return stats.FormatBytes(b)
}

// FormatDuration formats elapsed time concisely.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// Percent returns n as a percentage of total, or 0 when total is 0.
func Percent(n, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// ProgressLine renders a periodic progress report. Totals grow while the
// tree is still being scanned, so percentages are of what has been found
// so far.
//
//	Files: 120 / 4,096 (2.93%). Bytes: 1.2 MiB / 80 MiB (1.50%). 25 MiB/s eta 3s
func ProgressLine(snap stats.Snapshot, bytesPerSec float64) string {
	line := fmt.Sprintf("Files: %s / %s (%.2f%%). Bytes: %s / %s (%.2f%%). %s",
		FormatCount(snap.FilesCopied), FormatCount(snap.FilesFound),
		Percent(snap.FilesCopied+snap.FilesSkipped, snap.FilesFound),
		FormatBytes(snap.BytesCopied), FormatBytes(snap.BytesFound),
		Percent(snap.BytesCopied+snap.BytesSkipped, snap.BytesFound),
		FormatRate(bytesPerSec),
	)
	if remaining := snap.BytesFound - snap.BytesCopied - snap.BytesSkipped; remaining > 0 && bytesPerSec > 0 {
		line += " eta " + FormatETA(time.Duration(float64(remaining)/bytesPerSec*float64(time.Second)))
	}
	if snap.FilesSkipped > 0 {
		line += fmt.Sprintf(" skipped %s", FormatCount(snap.FilesSkipped))
	}
	if snap.Errors > 0 {
		line += fmt.Sprintf(" errors %d", snap.Errors)
	}
	return line
}
