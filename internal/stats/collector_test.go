package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()
	const goroutines = 100
	const opsPerGoroutine = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			for range opsPerGoroutine {
				c.AddFilesFound(1)
				c.AddFilesCopied(1)
				c.AddFilesSkipped(1)
				c.AddErrors(1)
				c.AddBytesCopied(256)
				c.AddDirsScanned(1)
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	expected := int64(goroutines * opsPerGoroutine)
	assert.Equal(t, expected, s.FilesFound)
	assert.Equal(t, expected, s.FilesCopied)
	assert.Equal(t, expected, s.FilesSkipped)
	assert.Equal(t, expected, s.Errors)
	assert.Equal(t, expected*256, s.BytesCopied)
	assert.Equal(t, expected, s.DirsScanned)
}

func TestSnapshotString(t *testing.T) {
	s := Snapshot{
		FilesFound:   10,
		FilesCopied:  8,
		FilesSkipped: 1,
		Errors:       1,
		BytesCopied:  4096,
		DirsScanned:  3,
	}
	assert.Equal(t, "found=10 copied=8 skipped=1 errors=1 bytes=4096 dirs=3", s.String())
	assert.Equal(t, int64(10), s.Done())
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048576, "1.0 MiB"},
		{1073741824, "1.0 GiB"},
		{-5, "0 B"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			require.Equal(t, tt.expected, FormatBytes(tt.input))
		})
	}
}

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	time.Sleep(5 * time.Millisecond)
	assert.Greater(t, c.Elapsed(), time.Duration(0))
	assert.Equal(t, Snapshot{}, withoutElapsed(c.Snapshot()))
}

func TestRollingSpeed(t *testing.T) {
	c := NewCollector()
	assert.Zero(t, c.RollingSpeed(5))

	start := c.lastTick
	c.AddBytesCopied(100)
	c.tickAt(start.Add(time.Second))
	c.AddBytesCopied(900)
	c.tickAt(start.Add(4 * time.Second))

	assert.InDelta(t, 300.0, c.RollingSpeed(1), 0.001)
	assert.InDelta(t, 250.0, c.RollingSpeed(2), 0.001)
	// Asking for more ticks than recorded averages what exists.
	assert.InDelta(t, 250.0, c.RollingSpeed(10), 0.001)
}

func TestRollingSpeedWrapsRing(t *testing.T) {
	c := NewCollector()
	now := c.lastTick
	for range ringSize + 10 {
		c.AddBytesCopied(10)
		now = now.Add(time.Second)
		c.tickAt(now)
	}
	assert.InDelta(t, 10.0, c.RollingSpeed(ringSize*2), 0.001)
}

func TestTickUsesWallClock(t *testing.T) {
	c := NewCollector()
	c.AddBytesCopied(1 << 20)
	time.Sleep(10 * time.Millisecond)
	c.Tick()
	assert.Positive(t, c.RollingSpeed(1))
}

func withoutElapsed(s Snapshot) Snapshot {
	s.Elapsed = 0
	return s
}
