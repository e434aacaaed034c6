package bench

import "github.com/torosent/nanofire/pkg/counters"

// calibrateAndMeasure runs the warm-up and measurement phases with a fixed
// inner multiplier m and returns the measurement aggregate, un-normalized.
//
// Warm-up sizes the outer sample count: it starts at MinRepeat and, every
// time the loop reaches its current bound with less than MinTime of
// cumulative measured time, extends the bound tenfold up to MaxRepeat. The
// bound is re-evaluated live, so samples already taken keep counting toward
// the extended pass instead of being redone. Everything warm-up measures is
// discarded; the early iterations ran against cold caches and an unsettled
// clock, and their only products are a steady-state machine and the final
// sample count.
func calibrateAndMeasure(fn func(), col Collector, m int, o Options) (*counters.Aggregate, error) {
	n := o.MinRepeat
	if n < 1 {
		n = 1
	}
	o.size(m, n)

	o.phase(PhaseWarmup)
	warm := counters.NewAggregate()
	for i := 0; i < n; i++ {
		s, err := measureBlock(fn, col, m)
		if err != nil {
			return nil, err
		}
		warm.Fold(s)
		if i+1 == n && n < o.MaxRepeat && warm.TotalElapsed() < o.MinTime {
			n *= 10
			if n > o.MaxRepeat {
				n = o.MaxRepeat
			}
			o.size(m, n)
		}
	}

	o.phase(PhaseMeasure)
	agg := counters.NewAggregate()
	for i := 0; i < n; i++ {
		s, err := measureBlock(fn, col, m)
		if err != nil {
			return nil, err
		}
		agg.Fold(s)
	}
	return agg, nil
}
