package counters

import (
	"errors"
	"runtime"
	"time"
)

var errDisabled = errors.New("hardware counters disabled by caller")

// Collector measures the window between Start and End on the calling
// goroutine. NewCollector pins the goroutine to its OS thread because the
// hardware counter group counts a single thread; Close unpins it.
type Collector struct {
	events *perfEvents
	err    error
	start  time.Time
}

// NewCollector opens the hardware counter group for the calling thread.
// When the group cannot be opened the collector still works, returning
// elapsed-only samples, and Supported reports false.
func NewCollector() *Collector {
	runtime.LockOSThread()
	ev, err := openPerfEvents()
	if err != nil {
		return &Collector{err: err}
	}
	return &Collector{events: ev}
}

// NewTimingCollector pins the calling goroutine like NewCollector but never
// opens the hardware counter group. Samples carry elapsed time only. It is
// the collector behind runs that turn counters off on purpose.
func NewTimingCollector() *Collector {
	runtime.LockOSThread()
	return &Collector{err: errDisabled}
}

// Supported reports whether hardware counters are being read. When false,
// samples carry elapsed time only and counter fields stay zero.
func (c *Collector) Supported() bool { return c.events != nil }

// Err returns why hardware counters are unavailable, or nil when they are
// being read.
func (c *Collector) Err() error { return c.err }

// Start resets and enables the counter group, then stamps the clock last so
// the measured window excludes the ioctls.
func (c *Collector) Start() {
	if c.events != nil {
		c.events.reset()
		c.events.enable()
	}
	c.start = time.Now()
}

// End stamps the clock first, then stops and reads the counter group, and
// returns the window as a Sample.
func (c *Collector) End() Sample {
	elapsed := time.Since(c.start)
	s := Sample{Elapsed: elapsed}
	if c.events != nil {
		c.events.disable()
		if counts, ok := c.events.read(); ok {
			s.Instructions = counts[0]
			s.Cycles = counts[1]
			s.Branches = counts[2]
			s.BranchMisses = counts[3]
		}
	}
	return s
}

// Close releases the counter group and unpins the goroutine from its OS
// thread. The collector must not be used afterwards.
func (c *Collector) Close() error {
	runtime.UnlockOSThread()
	if c.events == nil {
		return nil
	}
	err := c.events.close()
	c.events = nil
	return err
}
