package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

const ringSize = 60

// Reader is the read side of a Collector, used by presenters.
type Reader interface {
	Snapshot() Snapshot
	RollingSpeed(ticks int) float64
}

// ReadTicker is a Reader that also records throughput samples.
type ReadTicker interface {
	Reader
	Tick()
}

// Writer is the write side of a Collector, used by pool workers.
type Writer interface {
	AddFilesFound(n int64)
	AddBytesFound(n int64)
	AddFilesCopied(n int64)
	AddBytesCopied(n int64)
	AddFilesSkipped(n int64)
	AddBytesSkipped(n int64)
	AddErrors(n int64)
	AddDirsScanned(n int64)
	AddFilesVerified(n int64)
}

// Collector tracks copy progress using lock-free atomic counters.
// Workers only ever increment; no lock is held across I/O.
type Collector struct {
	filesFound    atomic.Int64
	bytesFound    atomic.Int64
	filesCopied   atomic.Int64
	bytesCopied   atomic.Int64
	filesSkipped  atomic.Int64
	bytesSkipped  atomic.Int64
	errors        atomic.Int64
	dirsScanned   atomic.Int64
	filesVerified atomic.Int64
	startTime     time.Time

	// Ring buffer, written only by the reporter's Tick(), never by workers.
	mu         sync.Mutex
	throughput [ringSize]int64         // bytes delta per tick
	spans      [ringSize]time.Duration // wall time covered by each tick
	ringIdx    int
	ringCount  int
	lastBytes  int64
	lastTick   time.Time
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	now := time.Now()
	return &Collector{startTime: now, lastTick: now}
}

var (
	_ Writer     = (*Collector)(nil)
	_ ReadTicker = (*Collector)(nil)
)

// Snapshot is an immutable point-in-time read of all counters.
type Snapshot struct {
	FilesFound    int64
	BytesFound    int64
	FilesCopied   int64
	BytesCopied   int64
	FilesSkipped  int64
	BytesSkipped  int64
	Errors        int64
	DirsScanned   int64
	FilesVerified int64
	Elapsed       time.Duration
}

func (c *Collector) AddFilesFound(n int64)    { c.filesFound.Add(n) }
func (c *Collector) AddBytesFound(n int64)    { c.bytesFound.Add(n) }
func (c *Collector) AddFilesCopied(n int64)   { c.filesCopied.Add(n) }
func (c *Collector) AddBytesCopied(n int64)   { c.bytesCopied.Add(n) }
func (c *Collector) AddFilesSkipped(n int64)  { c.filesSkipped.Add(n) }
func (c *Collector) AddBytesSkipped(n int64)  { c.bytesSkipped.Add(n) }
func (c *Collector) AddErrors(n int64)        { c.errors.Add(n) }
func (c *Collector) AddDirsScanned(n int64)   { c.dirsScanned.Add(n) }
func (c *Collector) AddFilesVerified(n int64) { c.filesVerified.Add(n) }

// Snapshot reads every counter atomically. Counters are read one at a time,
// so a snapshot taken mid-run may be off by the items in flight.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesFound:    c.filesFound.Load(),
		BytesFound:    c.bytesFound.Load(),
		FilesCopied:   c.filesCopied.Load(),
		BytesCopied:   c.bytesCopied.Load(),
		FilesSkipped:  c.filesSkipped.Load(),
		BytesSkipped:  c.bytesSkipped.Load(),
		Errors:        c.errors.Load(),
		DirsScanned:   c.dirsScanned.Load(),
		FilesVerified: c.filesVerified.Load(),
		Elapsed:       c.Elapsed(),
	}
}

// Tick records the bytes copied since the previous Tick into the ring buffer.
func (c *Collector) Tick() {
	c.tickAt(time.Now())
}

func (c *Collector) tickAt(now time.Time) {
	current := c.bytesCopied.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.throughput[c.ringIdx] = current - c.lastBytes
	c.spans[c.ringIdx] = now.Sub(c.lastTick)
	c.lastBytes = current
	c.lastTick = now
	c.ringIdx = (c.ringIdx + 1) % ringSize
	if c.ringCount < ringSize {
		c.ringCount++
	}
}

// RollingSpeed returns bytes per second over the last n ticks.
func (c *Collector) RollingSpeed(ticks int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(ticks, c.ringCount)
	if count <= 0 {
		return 0
	}
	var sum int64
	var span time.Duration
	for i := range count {
		idx := (c.ringIdx - 1 - i + ringSize) % ringSize
		sum += c.throughput[idx]
		span += c.spans[idx]
	}
	if span <= 0 {
		return 0
	}
	return float64(sum) / span.Seconds()
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

// Done reports the number of files that have reached a final state.
func (s Snapshot) Done() int64 {
	return s.FilesCopied + s.FilesSkipped + s.Errors
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"found=%d copied=%d skipped=%d errors=%d bytes=%d dirs=%d",
		s.FilesFound, s.FilesCopied, s.FilesSkipped, s.Errors,
		s.BytesCopied, s.DirsScanned,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	if b < 0 {
		b = 0
	}
	return humanize.IBytes(uint64(b))
}
