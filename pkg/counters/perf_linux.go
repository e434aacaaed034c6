//go:build linux

package counters

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// The four events are opened as one group so every count covers the same
// scheduling window. Order matters: group reads return values in open order,
// and Collector.End maps them positionally onto Sample fields.
var hardwareConfigs = []uint64{
	unix.PERF_COUNT_HW_INSTRUCTIONS,
	unix.PERF_COUNT_HW_CPU_CYCLES,
	unix.PERF_COUNT_HW_BRANCH_INSTRUCTIONS,
	unix.PERF_COUNT_HW_BRANCH_MISSES,
}

type perfEvents struct {
	fds []int // group leader first
	buf []byte
}

// openPerfEvents opens the counter group for the calling thread, counting
// user space only. The caller must already be pinned to its OS thread.
func openPerfEvents() (*perfEvents, error) {
	g := &perfEvents{}
	leader := -1
	for _, config := range hardwareConfigs {
		attr := unix.PerfEventAttr{
			Type:        unix.PERF_TYPE_HARDWARE,
			Size:        uint32(unsafe.Sizeof(unix.PerfEventAttr{})),
			Config:      config,
			Read_format: unix.PERF_FORMAT_GROUP | unix.PERF_FORMAT_TOTAL_TIME_ENABLED | unix.PERF_FORMAT_TOTAL_TIME_RUNNING,
			Bits:        unix.PerfBitExcludeKernel | unix.PerfBitExcludeHv,
		}
		if leader < 0 {
			// Only the leader starts disabled; enable/disable ioctls with
			// PERF_IOC_FLAG_GROUP then gate the whole group through it.
			attr.Bits |= unix.PerfBitDisabled
		}
		fd, err := unix.PerfEventOpen(&attr, 0, -1, leader, unix.PERF_FLAG_FD_CLOEXEC)
		if err != nil {
			g.closeAll()
			return nil, fmt.Errorf("perf_event_open config %d: %w", config, err)
		}
		if leader < 0 {
			leader = fd
		}
		g.fds = append(g.fds, fd)
	}
	// Group read layout: nr, time_enabled, time_running, then one u64 per event.
	g.buf = make([]byte, 8*(3+len(g.fds)))
	return g, nil
}

func (g *perfEvents) reset() {
	_ = unix.IoctlSetInt(g.fds[0], unix.PERF_EVENT_IOC_RESET, unix.PERF_IOC_FLAG_GROUP)
}

func (g *perfEvents) enable() {
	_ = unix.IoctlSetInt(g.fds[0], unix.PERF_EVENT_IOC_ENABLE, unix.PERF_IOC_FLAG_GROUP)
}

func (g *perfEvents) disable() {
	_ = unix.IoctlSetInt(g.fds[0], unix.PERF_EVENT_IOC_DISABLE, unix.PERF_IOC_FLAG_GROUP)
}

// read returns the group counts in open order. When the PMU multiplexed the
// group, counts are scaled by time_enabled/time_running the way perf(1)
// scales them. ok is false on a short or malformed read.
func (g *perfEvents) read() ([4]float64, bool) {
	var out [4]float64
	n, err := unix.Read(g.fds[0], g.buf)
	if err != nil || n < len(g.buf) {
		return out, false
	}
	nr := binary.NativeEndian.Uint64(g.buf[0:8])
	if int(nr) != len(g.fds) {
		return out, false
	}
	enabled := binary.NativeEndian.Uint64(g.buf[8:16])
	running := binary.NativeEndian.Uint64(g.buf[16:24])
	ratio := 1.0
	if running > 0 && running < enabled {
		ratio = float64(enabled) / float64(running)
	}
	for i := range g.fds {
		v := binary.NativeEndian.Uint64(g.buf[24+8*i : 32+8*i])
		out[i] = float64(v) * ratio
	}
	return out, true
}

func (g *perfEvents) close() error {
	return g.closeAll()
}

func (g *perfEvents) closeAll() error {
	var first error
	for _, fd := range g.fds {
		if err := unix.Close(fd); err != nil && first == nil {
			first = err
		}
	}
	g.fds = nil
	return first
}
