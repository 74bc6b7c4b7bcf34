package render

import (
	"context"
	"sync/atomic"
	"time"
)

// Quiet tracks network activity so that a panel refresh, which stalls the
// SPI bus and the CPU for seconds, does not start in the middle of a
// transfer.
type Quiet struct {
	last    atomic.Int64 // unix nanoseconds of the latest Mark, 0 if none
	window  time.Duration
	maxWait time.Duration
	now     func() time.Time
}

// NewQuiet returns a tracker that considers the network quiet after window
// without activity. Wait never blocks longer than maxWait.
func NewQuiet(window, maxWait time.Duration) *Quiet {
	return &Quiet{window: window, maxWait: maxWait, now: time.Now}
}

// Mark records activity now.
func (q *Quiet) Mark() {
	q.last.Store(q.now().UnixNano())
}

// Idle is the time since the last Mark, or a very long time if none.
func (q *Quiet) Idle() time.Duration {
	last := q.last.Load()
	if last == 0 {
		return time.Duration(1<<63 - 1)
	}
	return q.now().Sub(time.Unix(0, last))
}

// Wait blocks until the network has been quiet for the window, maxWait has
// passed, or ctx is done. It reports whether the quiet window was reached.
func (q *Quiet) Wait(ctx context.Context) bool {
	if q.window <= 0 {
		return true
	}
	deadline := q.now().Add(q.maxWait)
	for {
		idle := q.Idle()
		if idle >= q.window {
			return true
		}
		left := deadline.Sub(q.now())
		if left <= 0 {
			return false
		}
		d := q.window - idle
		if d > left {
			d = left
		}
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return false
		case <-t.C:
		}
	}
}
