// Package dispatch invokes a callable a fixed number of times with minimal
// per-iteration overhead.
//
// Calibration amplifies very short callables by running them in blocks of M
// invocations per measurement. For the round block sizes produced by
// calibration (1, 10, 100, 1000, 10000) the dispatcher uses unrolled paths
// composed from a hand-unrolled block of ten, so loop-counter and branch
// overhead does not bias sub-microsecond measurements. Any other positive
// count (a non-round calibration cap) falls back to a plain counted loop.
package dispatch

import (
	"errors"
	"fmt"
)

// ErrUnsupportedCount reports a repetition count the calibrator can never
// produce. It indicates a programming or configuration error, not a runtime
// condition to retry.
var ErrUnsupportedCount = errors.New("unsupported repetition count")

// CallNTimes invokes fn exactly n times. Counts below one return
// ErrUnsupportedCount; the callable is not invoked at all in that case.
func CallNTimes(fn func(), n int) error {
	switch n {
	case 1:
		fn()
	case 10:
		call10(fn)
	case 100:
		call100(fn)
	case 1000:
		call1000(fn)
	case 10000:
		call10000(fn)
	default:
		if n < 1 {
			return fmt.Errorf("%w: %d", ErrUnsupportedCount, n)
		}
		for i := 0; i < n; i++ {
			fn()
		}
	}
	return nil
}

// Unrolled indicates whether n is served by one of the specialized unrolled
// paths rather than the counted-loop fallback.
func Unrolled(n int) bool {
	switch n {
	case 1, 10, 100, 1000, 10000:
		return true
	}
	return false
}

func call10(fn func()) {
	fn()
	fn()
	fn()
	fn()
	fn()
	fn()
	fn()
	fn()
	fn()
	fn()
}

func call100(fn func()) {
	for i := 0; i < 10; i++ {
		call10(fn)
	}
}

func call1000(fn func()) {
	for i := 0; i < 10; i++ {
		call100(fn)
	}
}

func call10000(fn func()) {
	for i := 0; i < 10; i++ {
		call1000(fn)
	}
}
