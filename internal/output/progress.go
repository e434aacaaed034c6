package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/nanofire/internal/suite"
)

// StatusSource yields progress snapshots. *suite.Suite satisfies it.
type StatusSource interface {
	Status() suite.Status
}

// ProgressReporter displays real-time progress updates.
type ProgressReporter struct {
	source   StatusSource
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
}

// NewProgressReporter creates a progress reporter that updates at the given interval.
func NewProgressReporter(source StatusSource, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		source:   source,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			st := p.source.Status()
			line := fmt.Sprintf("\r[%d/%d]", st.Completed, st.Total)
			if st.Current != "" {
				line += fmt.Sprintf(" %s: %s", st.Current, st.Phase)
			}
			if n := len(st.Results); n > 0 {
				last := st.Results[n-1]
				line += fmt.Sprintf(" | last %s %.1f ns/call", last.Name, last.Aggregate.ElapsedNS())
			}
			line += fmt.Sprintf(" | elapsed %s", st.Elapsed.Round(100*time.Millisecond))
			fmt.Fprint(p.writer, line)
		case <-p.done:
			return
		}
	}
}
