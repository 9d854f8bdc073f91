package engine

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// NewBWLimiter creates the limiter behind --bwlimit. One limiter is shared by
// every copy worker of a run, so bytesPerSec caps the aggregate read rate, not
// the rate of a single file. The burst is 1 MiB, or the rate itself when that
// is smaller, so a single wait never exceeds one second of budget.
func NewBWLimiter(bytesPerSec int64) *rate.Limiter {
	burst := 1 << 20
	if bytesPerSec < int64(burst) {
		burst = int(bytesPerSec)
	}
	return rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}

// rateLimitedReader is the source side of copyRegular when a bandwidth limit
// is set. It replaces the kernel copy path with platform.CopyStream, and ctx
// is the run's uncancelable context so an in-flight file is never cut short.
type rateLimitedReader struct {
	r       io.Reader
	limiter *rate.Limiter
	ctx     context.Context //nolint:containedctx // io.Reader has no context parameter
}

func newRateLimitedReader(ctx context.Context, r io.Reader, limiter *rate.Limiter) *rateLimitedReader {
	return &rateLimitedReader{r: r, limiter: limiter, ctx: ctx}
}

// Read never asks the limiter for more than its burst at once.
func (rl *rateLimitedReader) Read(p []byte) (int, error) {
	if burst := rl.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}
	n, err := rl.r.Read(p)
	if n > 0 {
		if waitErr := rl.limiter.WaitN(rl.ctx, n); waitErr != nil {
			return n, waitErr
		}
	}
	return n, err
}
