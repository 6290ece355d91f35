package timex

import (
	"sync/atomic"
	"time"
)

// Clock is a monotonic microsecond counter, the resolution pulse timing needs.
type Clock interface {
	NowUs() uint64
}

var epoch = time.Now()

// SystemClock counts microseconds since process start.
type SystemClock struct{}

func (SystemClock) NowUs() uint64 { return uint64(time.Since(epoch) / time.Microsecond) }

// ManualClock only moves when told to. Safe for concurrent use.
type ManualClock struct {
	us atomic.Uint64
}

func (c *ManualClock) NowUs() uint64           { return c.us.Load() }
func (c *ManualClock) Set(us uint64)           { c.us.Store(us) }
func (c *ManualClock) Advance(d time.Duration) { c.us.Add(uint64(d / time.Microsecond)) }
