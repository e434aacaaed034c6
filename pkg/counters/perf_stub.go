//go:build !linux

package counters

import "errors"

// Hardware counters need perf_event_open; on other platforms the collector
// runs elapsed-only.
type perfEvents struct{}

func openPerfEvents() (*perfEvents, error) {
	return nil, errors.New("hardware counters require linux perf events")
}

func (*perfEvents) reset()   {}
func (*perfEvents) enable()  {}
func (*perfEvents) disable() {}

func (*perfEvents) read() ([4]float64, bool) { return [4]float64{}, false }

func (*perfEvents) close() error { return nil }
